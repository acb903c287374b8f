package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"birthdays/internal/config"
)

// ANSI color codes for terminal output
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

// seedUser is one row of sample data
type seedUser struct {
	email     string
	firstName string
	lastName  string
	birthday  string
	timezone  string
	active    bool
}

func main() {
	_ = godotenv.Load()

	includeToday := flag.Bool("today", false, "add a user whose birthday is today (UTC), for smoke testing delivery")
	flag.Parse()

	fmt.Printf("%s=== Birthdays Seeder ===%s\n\n", colorCyan, colorReset)

	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		fail(fmt.Sprintf("Failed to open database connection: %v", err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fail(fmt.Sprintf("Failed to ping database: %v", err))
	}

	users := []seedUser{
		{"john.doe@example.com", "John", "Doe", "1990-05-15", "America/New_York", true},
		{"mary.major@example.com", "Mary", "Major", "1985-12-31", "Pacific/Auckland", true},
		{"kenji.sato@example.com", "Kenji", "Sato", "1992-02-29", "Asia/Tokyo", true},
		{"ana.silva@example.com", "Ana", "Silva", "1998-03-14", "America/Sao_Paulo", true},
		{"lars.berg@example.com", "Lars", "Berg", "1979-07-01", "Europe/Oslo", true},
		{"inactive@example.com", "Ira", "Gone", "1990-05-15", "America/New_York", false},
	}

	if *includeToday {
		today := time.Now().UTC().Format("2006-01-02")
		users = append(users, seedUser{"today@example.com", "Today", "Test", today, "UTC", true})
	}

	inserted := 0
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (email, first_name, last_name, birthday, timezone, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (email) DO NOTHING
		`, u.email, u.firstName, u.lastName, u.birthday, u.timezone, u.active)
		if err != nil {
			fail(fmt.Sprintf("Failed to insert %s: %v", u.email, err))
		}
		inserted++
	}

	fmt.Printf("%s✓ Seeded %d user(s)%s\n", colorGreen, inserted, colorReset)
}

func fail(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorRed, msg, colorReset)
	os.Exit(1)
}
