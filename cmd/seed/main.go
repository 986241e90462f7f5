// seed inserts a demo user and a spread of tasks into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/ErlanBelekov/taskboard/internal/infrastructure/postgres"
	"golang.org/x/crypto/bcrypt"
)

const (
	seedEmail    = "demo@taskboard.local"
	seedPassword = "demo-pass1"
)

type taskSpec struct {
	title       string
	description string
	status      domain.Status
	priority    domain.Priority
	dueInDays   int // 0 = no due date
	tags        []string
}

var tasks = []taskSpec{
	// Fresh work
	{"Write project proposal", "First draft for the Q4 planning doc", domain.StatusPending, domain.PriorityHigh, 2, []string{"work", "writing"}},
	{"Book dentist appointment", "", domain.StatusPending, domain.PriorityMedium, 7, []string{"health"}},
	{"Buy groceries", "Milk, eggs, coffee", domain.StatusPending, domain.PriorityLow, 1, []string{"errands"}},
	{"Renew car insurance", "Policy expires end of month", domain.StatusPending, domain.PriorityHigh, 5, []string{"finance", "errands"}},

	// In flight
	{"Review pull requests", "Backlog from last sprint", domain.StatusInProgress, domain.PriorityMedium, 1, []string{"work", "code-review"}},
	{"Plan birthday party", "Venue booked, still need catering", domain.StatusInProgress, domain.PriorityMedium, 10, []string{"family"}},
	{"Learn SQL window functions", "", domain.StatusInProgress, domain.PriorityLow, 0, []string{"learning"}},
	{"Fix leaking faucet", "Parts ordered", domain.StatusInProgress, domain.PriorityHigh, 3, []string{"home"}},

	// Done
	{"Submit expense report", "", domain.StatusCompleted, domain.PriorityMedium, 0, []string{"work", "finance"}},
	{"Call accountant", "Discussed quarterly filing", domain.StatusCompleted, domain.PriorityHigh, 0, []string{"finance"}},
	{"Water the plants", "", domain.StatusCompleted, domain.PriorityLow, 0, []string{"home"}},
	{"Update resume", "Added current role", domain.StatusCompleted, domain.PriorityLow, 0, []string{"career"}},
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user, err := userRepo.Create(ctx, "Demo User", seedEmail, string(hash))
	if err != nil {
		log.Fatalf("create user (already seeded?): %v", err)
	}
	fmt.Printf("user %s (%s), password %q\n", user.ID, user.Email, seedPassword)

	for i, spec := range tasks {
		task := &domain.Task{
			UserID:      user.ID,
			Title:       spec.title,
			Description: spec.description,
			Status:      spec.status,
			Priority:    spec.priority,
			Tags:        spec.tags,
		}
		if spec.dueInDays > 0 {
			due := time.Now().AddDate(0, 0, spec.dueInDays)
			task.DueDate = &due
		}

		created, err := taskRepo.Create(ctx, task)
		if err != nil {
			log.Fatalf("create task %d: %v", i+1, err)
		}
		fmt.Printf("task %-40s %-12s %s\n", created.Title, created.Status, created.Priority)
	}

	fmt.Printf("seeded %d tasks for %s\n", len(tasks), seedEmail)
}
