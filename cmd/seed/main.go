package main

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sahayak/internal/cache"
	"sahayak/internal/config"
	"sahayak/internal/db"
	"sahayak/internal/geo"
	"sahayak/internal/model"
	"sahayak/internal/repository"
)

const demoPassword = "password123"

func ptr[T any](v T) *T { return &v }

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}, &model.Review{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	geoIndex := geo.NewIndex(cacheClient.Underlying())

	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	users := demoUsers(string(hash))
	created := 0
	for i := range users {
		existing, err := userRepo.FindByEmail(ctx, users[i].Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("Failed to check user %s: %v", users[i].Email, err)
		}
		if existing != nil {
			users[i] = *existing
			continue
		}
		if err := userRepo.Create(ctx, &users[i]); err != nil {
			log.Fatalf("Failed to create user %s: %v", users[i].Email, err)
		}
		created++
	}
	log.Printf("Users ready: %d created, %d already present", created, len(users)-created)

	tasks := demoTasks(users)
	seeded := 0
	for i := range tasks {
		if err := taskRepo.Create(ctx, &tasks[i]); err != nil {
			log.Fatalf("Failed to create task %q: %v", tasks[i].Title, err)
		}
		if tasks[i].Status == model.TaskStatusOpen && tasks[i].Location.HasCoordinates() {
			if err := geoIndex.Add(ctx, tasks[i].ID.String(), *tasks[i].Location.Lat, *tasks[i].Location.Lng); err != nil {
				log.Printf("Warning: failed to index task %q for geo search: %v", tasks[i].Title, err)
			}
		}
		seeded++
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Users: %d", len(users))
	log.Printf("  - Tasks created: %d", seeded)
	log.Printf("  - Demo login password: %s", demoPassword)
}

// demoUsers returns a small cast of Kochi-area users sharing one password hash.
func demoUsers(passwordHash string) []model.User {
	return []model.User{
		{
			Name:         "Anitha Menon",
			Email:        "anitha@example.com",
			PasswordHash: passwordHash,
			Phone:        "+919800000001",
			UserType:     model.UserTypePoster,
			Location: model.Location{
				Address: "12 Marine Drive",
				City:    "Kochi",
				Pincode: "682031",
				Lat:     ptr(9.9816),
				Lng:     ptr(76.2756),
			},
			TrustScore:         model.DefaultTrustScore,
			VerificationStatus: model.UserVerificationVerified,
			Active:             true,
		},
		{
			Name:         "Ravi Kumar",
			Email:        "ravi@example.com",
			PasswordHash: passwordHash,
			Phone:        "+919800000002",
			UserType:     model.UserTypeHelper,
			Bio:          "Electrician and general handyman, 8 years experience.",
			Skills:       []string{"electrical", "plumbing", "home_maintenance"},
			Location: model.Location{
				Address: "45 MG Road",
				City:    "Kochi",
				Pincode: "682016",
				Lat:     ptr(9.9658),
				Lng:     ptr(76.2884),
			},
			TrustScore:         model.DefaultTrustScore,
			VerificationStatus: model.UserVerificationVerified,
			Active:             true,
		},
		{
			Name:         "Lakshmi Nair",
			Email:        "lakshmi@example.com",
			PasswordHash: passwordHash,
			Phone:        "+919800000003",
			UserType:     model.UserTypeBoth,
			Bio:          "Home nurse, available for elder care and medicine runs.",
			Skills:       []string{"caregiving", "healthcare"},
			Location: model.Location{
				Address: "3 Panampilly Avenue",
				City:    "Kochi",
				Pincode: "682036",
				Lat:     ptr(9.9542),
				Lng:     ptr(76.2988),
			},
			TrustScore:         model.DefaultTrustScore,
			VerificationStatus: model.UserVerificationPending,
			Active:             true,
		},
	}
}

// demoTasks returns open tasks around central Kochi posted by the demo users.
func demoTasks(users []model.User) []model.Task {
	poster := users[0]
	return []model.Task{
		{
			Title:       "Fix leaking kitchen tap",
			Description: "Kitchen tap has been dripping for a week, needs a washer replacement or a new tap fitted.",
			Category:    model.CategoryHomeMaintenance,
			Urgency:     model.UrgencyHigh,
			Budget: model.Budget{
				Amount:     decimal.NewFromInt(500),
				Currency:   "INR",
				Negotiable: true,
			},
			Status:             model.TaskStatusOpen,
			PostedBy:           poster.ID,
			VerificationStatus: model.TaskVerificationVerified,
			Location: model.Location{
				Address: "12 Marine Drive",
				City:    "Kochi",
				Pincode: "682031",
				Lat:     ptr(9.9816),
				Lng:     ptr(76.2756),
			},
		},
		{
			Title:       "Pick up medicines from Ernakulam General Hospital pharmacy",
			Description: "Monthly prescription refill for my mother. Prescription photo will be shared after assignment.",
			Category:    model.CategoryDelivery,
			Urgency:     model.UrgencyUrgent,
			Budget: model.Budget{
				Amount:     decimal.NewFromInt(150),
				Currency:   "INR",
				Negotiable: false,
			},
			Status:             model.TaskStatusOpen,
			PostedBy:           poster.ID,
			VerificationStatus: model.TaskVerificationVerified,
			Location: model.Location{
				Address: "Hospital Road",
				City:    "Kochi",
				Pincode: "682011",
				Lat:     ptr(9.9785),
				Lng:     ptr(76.2822),
			},
		},
		{
			Title:       "Set up new WiFi router",
			Description: "New router arrived, need someone to configure it and connect two laptops and a TV.",
			Category:    model.CategoryTechSupport,
			Urgency:     model.UrgencyMedium,
			Budget: model.Budget{
				Amount:     decimal.NewFromInt(300),
				Currency:   "INR",
				Negotiable: true,
			},
			Status:             model.TaskStatusOpen,
			PostedBy:           users[2].ID,
			VerificationStatus: model.TaskVerificationPending,
			Location: model.Location{
				Address: "3 Panampilly Avenue",
				City:    "Kochi",
				Pincode: "682036",
				Lat:     ptr(9.9542),
				Lng:     ptr(76.2988),
			},
		},
	}
}
