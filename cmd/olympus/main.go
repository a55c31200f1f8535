// Command olympus levanta el servidor de autorización y agrupa las
// herramientas operativas (hash de passwords, generación de claves).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "olympus",
		Short:         "Servidor de autorización por políticas y sesiones",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env es opcional
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
			}
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", envOr("OLYMPUS_CONFIG", ""), "Archivo de configuración YAML o TOML (env OLYMPUS_CONFIG)")

	root.AddCommand(
		newServeCmd(&cfgPath),
		newHashPasswordCmd(&cfgPath),
		newGenKeyCmd(),
		newMigrateCmd(&cfgPath),
		&cobra.Command{
			Use:   "version",
			Short: "Imprime la versión",
			Run:   func(cmd *cobra.Command, args []string) { fmt.Println(version) },
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
