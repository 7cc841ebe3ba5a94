// Package main provides a tool to inspect the contents of a Blanc database.
//
// Usage:
//
//	DATA_DIR=~/Blanc/data go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
	"github.com/blancapp/blanc-server/internal/store/sqlite"
)

func main() {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = os.ExpandEnv("$HOME/Blanc/data")
	}

	dbPath := filepath.Join(dataDir, "blanc.db")
	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close() //nolint:errcheck // Best effort on exit

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	users, err := s.ListUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}
	fmt.Printf("Users: %d\n", len(users))
	for _, u := range users {
		fmt.Printf("  %s (%s, role=%s, active=%t)\n", u.Username, u.ID, u.Role, u.Active)
	}
	fmt.Println()

	tags, err := s.ListTags(ctx)
	if err != nil {
		log.Fatalf("Failed to list tags: %v", err)
	}
	fmt.Printf("Tags: %d\n", len(tags))

	// Project listings are viewer-scoped, so walk every user and dedupe.
	seen := map[string]bool{}
	var projects []*domain.Project
	for _, u := range users {
		page, err := s.ListProjects(ctx, store.ProjectFilter{ViewerID: u.ID}, store.PageParams{Page: 1, Limit: 100})
		if err != nil {
			log.Fatalf("Failed to list projects for %s: %v", u.Username, err)
		}
		for _, p := range page.Items {
			if !seen[p.ID] {
				seen[p.ID] = true
				projects = append(projects, p)
			}
		}
	}
	fmt.Printf("Projects: %d\n", len(projects))
	fmt.Println()

	totalTasks := 0
	for _, p := range projects {
		tasks, err := s.ListTasks(ctx, store.TaskFilter{ProjectID: p.ID}, store.PageParams{Page: 1, Limit: 1})
		if err != nil {
			log.Printf("Error listing tasks for project %s: %v", p.ID, err)
			continue
		}

		stages, err := s.ListProjectStages(ctx, p.ID)
		if err != nil {
			log.Printf("Error listing stages for project %s: %v", p.ID, err)
			continue
		}

		members, err := s.ListProjectMembers(ctx, p.ID)
		if err != nil {
			log.Printf("Error listing members for project %s: %v", p.ID, err)
			continue
		}

		totalTasks += tasks.Total

		fmt.Printf("Project: %s\n", p.Name)
		fmt.Printf("  ID: %s\n", p.ID)
		fmt.Printf("  Status: %s (active=%t)\n", p.Status, p.Active)
		fmt.Printf("  Stages: %d, Members: %d, Tasks: %d\n", len(stages), len(members), tasks.Total)
		fmt.Println()
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total users: %d\n", len(users))
	fmt.Printf("Total projects: %d\n", len(projects))
	fmt.Printf("Total tasks: %d\n", totalTasks)
	if len(projects) > 0 {
		fmt.Printf("Average tasks per project: %.1f\n", float64(totalTasks)/float64(len(projects)))
	}
}
