package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/olympus/internal/config"
	"github.com/dropDatabas3/olympus/internal/jwt"
	"github.com/dropDatabas3/olympus/internal/security/password"
	"github.com/dropDatabas3/olympus/internal/store/pg"
)

// hash-password: útil para sembrar usuarios a mano en Postgres.
func newHashPasswordCmd(cfgPath *string) *cobra.Command {
	var skipPolicy bool
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Imprime el hash argon2id (lee stdin si no se pasa argumento)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain := ""
			if len(args) == 1 {
				plain = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				plain = strings.TrimRight(line, "\r\n")
			}
			if plain == "" {
				return errors.New("password vacío")
			}

			if !skipPolicy {
				cfg, err := config.Load(*cfgPath)
				if err != nil {
					return err
				}
				pp := cfg.Security.PasswordPolicy
				rules := password.Rules{
					MinLength:     pp.MinLength,
					RequireUpper:  pp.RequireUpper,
					RequireLower:  pp.RequireLower,
					RequireDigit:  pp.RequireDigit,
					RequireSymbol: pp.RequireSymbol,
				}
				if reasons := rules.Check(plain); len(reasons) > 0 {
					return fmt.Errorf("password rechazado: %s", strings.Join(reasons, ","))
				}
			}

			hash, err := password.Hash(password.Default, plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipPolicy, "skip-policy", false, "No validar contra la política de passwords")
	return cmd
}

// gen-key genera una clave Ed25519 (PKCS#8) y su pública al lado.
func newGenKeyCmd() *cobra.Command {
	var out string
	var force bool
	cmd := &cobra.Command{
		Use:   "gen-key",
		Short: "Genera la clave de firma de claim tokens (o de un emisor de proofs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out es requerido")
			}
			if _, err := os.Stat(out); err == nil && !force {
				return fmt.Errorf("%s ya existe (usar --force)", out)
			}
			ks, err := jwt.NewEd25519()
			if err != nil {
				return err
			}
			if err := ks.WritePEM(out); err != nil {
				return err
			}
			pub, err := ks.PublicPEM()
			if err != nil {
				return err
			}
			pubPath := strings.TrimSuffix(out, filepath.Ext(out)) + ".pub.pem"
			if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kid=%s\nprivate=%s\npublic=%s\n", ks.KID, out, pubPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Ruta del PEM privado")
	cmd.Flags().BoolVar(&force, "force", false, "Sobrescribir si existe")
	return cmd
}

// migrate aplica las migraciones de Postgres sin levantar el server.
func newMigrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes de Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual %q)", cfg.Storage.Driver)
			}
			s, err := pg.New(cmd.Context(), cfg.Storage.DSN, pg.Options{MaxOpenConns: 2})
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			applied, err := s.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nada para aplicar")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", v)
			}
			return nil
		},
	}
}
