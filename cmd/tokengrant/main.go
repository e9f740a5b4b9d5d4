package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/infra"
	"server/internal/sqlinline"
)

func main() {
	var (
		idFlag     string
		emailFlag  string
		amountFlag int
	)

	flag.StringVar(&idFlag, "id", "", "user ID to credit (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to credit")
	flag.IntVar(&amountFlag, "amount", 0, "tokens to grant (must be positive)")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if amountFlag <= 0 {
		exitWithError(errors.New("-amount must be positive"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "tokengrant").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	if userID == "" {
		lookupCtx, cancelLookup := context.WithTimeout(context.Background(), 5*time.Second)
		row := runner.QueryRow(lookupCtx, sqlinline.QSelectUserIDByEmail, email)
		scanErr := row.Scan(&userID, &email)
		cancelLookup()
		if scanErr != nil {
			exitWithError(fmt.Errorf("failed to resolve user by email: %w", scanErr))
		}
	}

	grantCtx, cancelGrant := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelGrant()
	row := runner.QueryRow(grantCtx, sqlinline.QGrantTokens, userID, amountFlag)
	var available int
	if err := row.Scan(&available); err != nil {
		exitWithError(fmt.Errorf("failed to grant tokens: %w", err))
	}

	fmt.Printf("Granted %d tokens to %s\n", amountFlag, userID)
	fmt.Printf("available=%d\n", available)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
