package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vowline/vowline/internal/auth"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
	"github.com/vowline/vowline/internal/service"
)

type output struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	Created   bool     `json:"created"`
	Templates []string `json:"templates"`
}

// starterTemplates are seeded for a new celebrant.
var starterTemplates = []service.CreateEmailTemplateInput{
	{
		Name:     "Enquiry reply",
		Category: "enquiry",
		Subject:  "Thanks for getting in touch, {{.Partner1Name}}",
		Body:     "Hi {{.Partner1Name}} and {{.Partner2Name}},\n\nThank you for your enquiry. I'd love to hear more about your plans.\n\n{{.CelebrantName}}\n{{.BusinessName}}",
	},
	{
		Name:     "NOIM reminder",
		Category: "legal",
		Subject:  "Your Notice of Intended Marriage",
		Body:     "Hi {{.CoupleName}},\n\nA reminder that the NOIM must be lodged at least one month before {{.WeddingDate}}.\n\n{{.CelebrantName}}",
	},
	{
		Name:     "Final details",
		Category: "ceremony",
		Subject:  "Final details for {{.WeddingDate}}",
		Body:     "Hi {{.Partner1Name}} and {{.Partner2Name}},\n\nLet's confirm the running order for your ceremony on {{.WeddingDate}}.\n\n{{.CelebrantName}}",
	},
}

func main() {
	var (
		databaseURL  = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email        = flag.String("email", "", "Celebrant email")
		password     = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "Celebrant password (default $BOOTSTRAP_PASSWORD)")
		fullName     = flag.String("name", "Celebrant", "Full name")
		businessName = flag.String("business", "", "Business name")
		templates    = flag.Bool("templates", true, "Seed starter email templates")
		format       = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	user, created, err := ensureUser(ctx, repo, strings.ToLower(strings.TrimSpace(*email)), *password, *fullName, *businessName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{UserID: user.ID, Email: user.Email, Created: created, Templates: []string{}}

	if *templates {
		svc := service.NewEmailTemplateService(repo, service.NewClock(time.UTC), nil, nil)
		for _, input := range starterTemplates {
			input.UserID = user.ID
			tmpl, err := svc.CreateEmailTemplate(ctx, input)
			if errors.Is(err, service.ErrTemplateNameExists) {
				continue
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, "create template:", err)
				os.Exit(1)
			}
			out.Templates = append(out.Templates, tmpl.Name)
		}
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func ensureUser(ctx context.Context, repo *repository.Repository, email, password, fullName, businessName string) (*model.User, bool, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("look up user: %w", err)
	}

	if err := auth.ValidatePassword(password); err != nil {
		return nil, false, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		BusinessName: businessName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}
