// Command mint-token prints an HS256 bearer token accepted by a service
// configured with AUTH_JWT_SECRET.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/jakestrouse00/mongodriver/internal/auth"
	"github.com/jakestrouse00/mongodriver/internal/config"
	"github.com/jakestrouse00/mongodriver/pkg/logger"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	subject := pflag.StringP("subject", "s", "", "token subject (sub claim)")
	ttl := pflag.Duration("ttl", time.Hour, "token lifetime")
	pflag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "usage: mint-token --subject NAME [--ttl 1h]")
		os.Exit(2)
	}
	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	tok, err := auth.GenerateToken(cfg.Auth.JWTSecret, *subject, *ttl)
	if err != nil {
		logger.Fatalf("mint token: %v", err)
	}
	fmt.Println(tok)
}
