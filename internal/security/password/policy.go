package password

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrWeak marca una password rechazada por Rules.
var ErrWeak = errors.New("password: does not meet policy")

// Rules es la política mínima que se aplica al enrolar o cambiar password.
type Rules struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	// Blacklist contiene passwords prohibidas en minúsculas.
	Blacklist map[string]struct{}
}

// Check devuelve las razones de rechazo. Vacío si la password es aceptable.
func (r Rules) Check(s string) (reasons []string) {
	if len([]rune(s)) < r.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasU, hasL, hasD, hasS bool
	for _, c := range s {
		switch {
		case unicode.IsUpper(c):
			hasU = true
		case unicode.IsLower(c):
			hasL = true
		case unicode.IsDigit(c):
			hasD = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			hasS = true
		}
	}
	if r.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if r.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if r.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if r.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if _, banned := r.Blacklist[strings.ToLower(strings.TrimSpace(s))]; banned {
		reasons = append(reasons, "blacklisted")
	}
	return reasons
}

// LoadBlacklist lee una password por línea. Ignora vacías y comentarios (#).
// path vacío devuelve una lista vacía.
func LoadBlacklist(path string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(strings.ToLower(sc.Text()))
		if s != "" && !strings.HasPrefix(s, "#") {
			out[s] = struct{}{}
		}
	}
	return out, sc.Err()
}
