// Package main provides a tool to seed the database with demo project data.
//
// This creates test users, a handful of projects with members, stages,
// tags and tasks, so boards and filters have something to show during
// development.
//
// Usage:
//
//	DATA_DIR=~/Blanc/data go run ./cmd/seed
//	DATA_DIR=~/Blanc/data go run ./cmd/seed --projects 5
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/blancapp/blanc-server/internal/auth"
	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/store/sqlite"
)

var projectCount = flag.Int("projects", 3, "Number of demo projects to create")

// testUserNames are usernames for generated test users.
var testUserNames = []string{
	"alex.rivera",
	"jordan.chen",
	"sam.taylor",
	"casey.morgan",
	"riley.kim",
}

// projectNames label the generated demo projects.
var projectNames = []string{
	"Website Redesign",
	"Mobile App",
	"Q3 Marketing",
	"Data Migration",
	"Customer Portal",
}

// stageNames are the extra stages added after the default one.
var stageNames = []string{"In Progress", "In Review", "Done"}

// taskNames label the generated demo tasks.
var taskNames = []string{
	"Draft the brief",
	"Collect requirements",
	"Sketch wireframes",
	"Review with stakeholders",
	"Implement first pass",
	"Write acceptance tests",
	"Fix review feedback",
	"Prepare release notes",
}

// tagSeeds are the demo tag vocabulary.
var tagSeeds = []struct {
	name  string
	color string
}{
	{"urgent", "#e74c3c"},
	{"design", "#9b59b6"},
	{"backend", "#2980b9"},
	{"research", "#27ae60"},
}

func main() {
	flag.Parse()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = os.ExpandEnv("$HOME/Blanc/data")
	}

	dbPath := filepath.Join(dataDir, "blanc.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close() //nolint:errcheck // Best effort on exit

	ctx := context.Background()

	seedRoles(ctx, s)
	users := seedUsers(ctx, s)
	if len(users) < 2 {
		log.Fatal("Need at least two users to seed projects")
	}

	tags := seedTags(ctx, s)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	count := min(*projectCount, len(projectNames))
	for i := range count {
		seedProject(ctx, s, rng, projectNames[i], users, tags)
	}

	fmt.Println("\nSeeding complete!")
}

// seedRoles ensures the role registry exists; registration depends on it.
func seedRoles(ctx context.Context, s *sqlite.Store) {
	for _, name := range []string{"admin", "user"} {
		role := &domain.RoleRecord{ID: id.MustGenerate("role"), Name: name}
		if err := s.CreateRole(ctx, role); err != nil {
			log.Fatalf("Failed to seed role %q: %v", name, err)
		}
	}
	fmt.Println("Role registry seeded")
}

// seedUsers creates the test users, skipping any that already exist.
func seedUsers(ctx context.Context, s *sqlite.Store) []*domain.User {
	fmt.Println("\n=== Creating Test Users ===")

	passwordHash, err := auth.HashPassword("testpass123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now()
	var users []*domain.User

	for i, username := range testUserNames {
		if existing, _ := s.GetUserByUsername(ctx, username); existing != nil {
			fmt.Printf("  User %s already exists, skipping\n", username)
			users = append(users, existing)
			continue
		}

		role := domain.RoleUser
		if i == 0 {
			role = domain.RoleAdmin
		}

		inviteCode, err := id.InviteCode()
		if err != nil {
			log.Fatalf("Failed to generate invite code: %v", err)
		}

		user := &domain.User{
			ID:           id.MustGenerate("user"),
			Username:     username,
			Email:        fmt.Sprintf("%s@example.com", username),
			PasswordHash: passwordHash,
			Role:         role,
			InviteCode:   inviteCode,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := s.CreateUser(ctx, user); err != nil {
			log.Printf("  Failed to create user %s: %v", username, err)
			continue
		}

		fmt.Printf("  Created user: %s (%s)\n", username, user.Role)
		users = append(users, user)
	}

	return users
}

// seedTags creates the demo tag vocabulary, reusing existing tags by name.
func seedTags(ctx context.Context, s *sqlite.Store) []*domain.Tag {
	var tags []*domain.Tag
	for _, seed := range tagSeeds {
		if existing, _ := s.GetTagByName(ctx, seed.name); existing != nil {
			tags = append(tags, existing)
			continue
		}
		tag := &domain.Tag{ID: id.MustGenerate("tag"), Name: seed.name, Color: seed.color}
		if err := s.CreateTag(ctx, tag); err != nil {
			log.Printf("Failed to create tag %s: %v", seed.name, err)
			continue
		}
		tags = append(tags, tag)
	}
	fmt.Printf("Tag vocabulary ready (%d tags)\n", len(tags))
	return tags
}

// seedProject creates one project with members, stages, tags and tasks.
func seedProject(ctx context.Context, s *sqlite.Store, rng *rand.Rand, name string, users []*domain.User, tags []*domain.Tag) {
	now := time.Now()
	owner := users[rng.Intn(len(users))]

	project := &domain.Project{
		ID:              id.MustGenerate("proj"),
		Name:            name,
		Description:     fmt.Sprintf("Demo project seeded for %s", name),
		OwnerID:         owner.ID,
		Status:          domain.ProjectStatusInProgress,
		Active:          true,
		AllowMilestones: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	defaultStage := &domain.Stage{
		ID:        id.MustGenerate("stage"),
		ProjectID: project.ID,
		Name:      domain.DefaultStageName,
		Sequence:  0,
		IsDefault: true,
	}

	manager := &domain.ProjectMember{
		ID:        id.MustGenerate("pmem"),
		ProjectID: project.ID,
		UserID:    owner.ID,
		Role:      domain.MemberRoleManager,
		JoinedAt:  now,
	}

	if err := s.CreateProject(ctx, project, defaultStage, manager); err != nil {
		log.Printf("Failed to create project %s: %v", name, err)
		return
	}

	fmt.Printf("\nCreated project: %s (owner %s)\n", name, owner.Username)

	// Extra stages beyond the default
	stages := []*domain.Stage{defaultStage}
	for i, stageName := range stageNames {
		stage := &domain.Stage{
			ID:        id.MustGenerate("stage"),
			ProjectID: project.ID,
			Name:      stageName,
			Sequence:  i + 1,
		}
		if err := s.CreateStage(ctx, stage); err != nil {
			log.Printf("  Failed to create stage %s: %v", stageName, err)
			continue
		}
		stages = append(stages, stage)
	}

	// Add 1-3 other users as members
	members := []*domain.User{owner}
	for _, user := range users {
		if user.ID == owner.ID || len(members) >= 4 {
			continue
		}
		if rng.Float32() > 0.6 {
			continue
		}
		member := &domain.ProjectMember{
			ID:        id.MustGenerate("pmem"),
			ProjectID: project.ID,
			UserID:    user.ID,
			Role:      domain.MemberRoleMember,
			JoinedAt:  now,
		}
		if err := s.AddProjectMember(ctx, member); err != nil {
			log.Printf("  Failed to add member %s: %v", user.Username, err)
			continue
		}
		members = append(members, user)
	}
	fmt.Printf("  Members: %d\n", len(members))

	// Attach 1-2 tags
	for _, tag := range tags {
		if rng.Float32() > 0.4 {
			continue
		}
		if err := s.TagProject(ctx, tag.ID, project.ID); err != nil {
			log.Printf("  Failed to tag project: %v", err)
		}
	}

	// Create 4-8 tasks spread over the stages
	numTasks := 4 + rng.Intn(5)
	for i := range numTasks {
		taskName := taskNames[i%len(taskNames)]
		stage := stages[rng.Intn(len(stages))]
		assignee := members[rng.Intn(len(members))]
		due := now.AddDate(0, 0, 3+rng.Intn(21))

		task := &domain.Task{
			ID:          id.MustGenerate("task"),
			ProjectID:   project.ID,
			StageID:     stage.ID,
			Name:        taskName,
			Priority:    domain.TaskPriorityMin + rng.Intn(domain.TaskPriorityMax),
			Status:      domain.TaskStatusInProgress,
			Active:      true,
			CreatorID:   owner.ID,
			DueDate:     &due,
			CreatedAt:   now,
			UpdatedAt:   now,
			AssigneeIDs: []string{assignee.ID},
		}

		if err := s.CreateTask(ctx, task); err != nil {
			log.Printf("  Failed to create task %s: %v", taskName, err)
			continue
		}

		if rng.Float32() < 0.3 && len(tags) > 0 {
			tag := tags[rng.Intn(len(tags))]
			if err := s.TagTask(ctx, tag.ID, task.ID); err != nil {
				log.Printf("  Failed to tag task: %v", err)
			}
		}
	}
	fmt.Printf("  Tasks: %d\n", numTasks)
}
