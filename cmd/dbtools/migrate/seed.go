package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codr1/fieldbook/internal/db"
	dbgen "github.com/codr1/fieldbook/internal/db/generated"
)

type seedData struct {
	Fields []struct {
		Name     string `yaml:"name"`
		Surface  string `yaml:"surface"`
		Timezone string `yaml:"timezone"`
	} `yaml:"fields"`
	Users []struct {
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
		Email     string `yaml:"email"`
	} `yaml:"users"`
}

type seedCounts struct {
	fields int
	users  int
}

func parseSeed(data []byte) (seedData, error) {
	var seed seedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seedData{}, fmt.Errorf("parse seed: %w", err)
	}
	for i, f := range seed.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return seedData{}, fmt.Errorf("fields[%d]: name is required", i)
		}
		if f.Timezone == "" {
			seed.Fields[i].Timezone = "UTC"
		} else if _, err := time.LoadLocation(f.Timezone); err != nil {
			return seedData{}, fmt.Errorf("fields[%d]: %w", i, err)
		}
	}
	for i, u := range seed.Users {
		if strings.TrimSpace(u.FirstName) == "" || strings.TrimSpace(u.LastName) == "" {
			return seedData{}, fmt.Errorf("users[%d]: first_name and last_name are required", i)
		}
	}
	return seed, nil
}

// seedFile applies migrations and inserts the file's rows in one
// transaction.
func seedFile(ctx context.Context, dbPath, seedPath string) (seedCounts, error) {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return seedCounts{}, fmt.Errorf("read seed: %w", err)
	}
	seed, err := parseSeed(data)
	if err != nil {
		return seedCounts{}, err
	}

	database, err := db.New(dbPath)
	if err != nil {
		return seedCounts{}, err
	}
	defer database.Close()

	return applySeed(ctx, database, seed)
}

func applySeed(ctx context.Context, database *db.DB, seed seedData) (seedCounts, error) {
	var counts seedCounts
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		for _, f := range seed.Fields {
			if _, err := tx.Queries.CreateField(ctx, dbgen.CreateFieldParams{
				Name:     strings.TrimSpace(f.Name),
				Surface:  strings.TrimSpace(f.Surface),
				Timezone: f.Timezone,
			}); err != nil {
				return fmt.Errorf("create field %q: %w", f.Name, err)
			}
			counts.fields++
		}
		for _, u := range seed.Users {
			email := strings.ToLower(strings.TrimSpace(u.Email))
			if _, err := tx.Queries.CreateUser(ctx, dbgen.CreateUserParams{
				FirstName: strings.TrimSpace(u.FirstName),
				LastName:  strings.TrimSpace(u.LastName),
				Email:     sql.NullString{String: email, Valid: email != ""},
			}); err != nil {
				return fmt.Errorf("create user %s %s: %w", u.FirstName, u.LastName, err)
			}
			counts.users++
		}
		return nil
	})
	if err != nil {
		return seedCounts{}, err
	}
	return counts, nil
}
