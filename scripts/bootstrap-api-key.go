package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/locallibrary/catalog/internal/auth"
	"github.com/locallibrary/catalog/internal/model"
	"github.com/locallibrary/catalog/internal/repository"
)

type output struct {
	UserID        string   `json:"user_id"`
	Email         string   `json:"email"`
	KeyID         string   `json:"key_id"`
	Key           string   `json:"key"`
	KeyPrefix     string   `json:"key_prefix"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		userID      = flag.String("user-id", "head-librarian", "User ID to own the API key")
		email       = flag.String("email", "head-librarian@library.local", "User email")
		displayName = flag.String("display-name", "Head Librarian", "User display name")
		name        = flag.String("name", "bootstrap", "API key name")
		scopesInput = flag.String("scopes", "admin", "Comma-separated scopes (read,librarian,admin)")
		env         = flag.String("env", auth.EnvLive, "Key environment marker: live or test")
		migrate     = flag.Bool("migrate", false, "Apply schema migrations first")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fail("DATABASE_URL is required")
	}

	scopes, err := parseScopes(*scopesInput)
	if err != nil {
		fail(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *migrate {
		if err := repository.Migrate(ctx, *databaseURL); err != nil {
			fail("migrate:", err)
		}
	}

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fail("connect database:", err)
	}
	defer repo.Close()

	user, err := repo.GetOrCreateUser(ctx, &model.User{
		ID:          *userID,
		Email:       *email,
		DisplayName: *displayName,
	})
	if err != nil {
		fail("ensure user:", err)
	}
	if user.ID != *userID {
		fail(fmt.Sprintf("email %s already used by user %s", *email, user.ID))
	}

	generated, err := auth.GenerateAPIKey(*env)
	if err != nil {
		fail("generate api key:", err)
	}

	apiKey := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        user.ID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: model.DefaultTierFor(scopes),
		Name:          *name,
		CreatedAt:     time.Now().UTC(),
	}

	if err := repo.CreateAPIKey(ctx, apiKey); err != nil {
		fail("create api key:", err)
	}

	out := output{
		UserID:        user.ID,
		Email:         user.Email,
		KeyID:         apiKey.ID,
		Key:           generated.Plaintext,
		KeyPrefix:     apiKey.KeyPrefix,
		Scopes:        scopes,
		RateLimitTier: apiKey.RateLimitTier,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Key)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fail("invalid format; use plain or json")
	}
}

func parseScopes(input string) ([]string, error) {
	var scopes []string
	for _, part := range strings.Split(input, ",") {
		scope := strings.TrimSpace(part)
		if scope == "" {
			continue
		}
		if !slices.Contains(model.ValidScopes, scope) {
			return nil, fmt.Errorf("invalid scope: %s", scope)
		}
		scopes = append(scopes, scope)
	}
	if len(scopes) == 0 {
		scopes = []string{model.ScopeAdmin}
	}
	return scopes, nil
}

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
