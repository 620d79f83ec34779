package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/clinic-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	specialtyIDs, err := seedSpecialties(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed specialties: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, specialtyIDs, 50); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 5000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedStaff(context.Background(), pool, 10); err != nil {
		log.Fatalf("seed staff: %v", err)
	}

	log.Println("seed complete")
}

func seedSpecialties(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	names := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	log.Printf("seeding %d specialties", len(names))

	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id := uuid.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO specialties (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, specialtyIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d doctors with weekly templates", count)

	shifts := []string{"morning", "afternoon", "both"}
	slotSizes := []int{20, 30, 60}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, id, name)
		if err != nil {
			return err
		}

		specialty := specialtyIDs[gofakeit.Number(0, len(specialtyIDs)-1)]
		shift := shifts[gofakeit.Number(0, len(shifts)-1)]
		slotMinutes := slotSizes[gofakeit.Number(0, len(slotSizes)-1)]

		// Weekday templates: morning block, afternoon block, or both.
		for weekday := 1; weekday <= 5; weekday++ {
			blocks := [][2]int{}
			switch shift {
			case "morning":
				blocks = append(blocks, [2]int{8 * 60, 12 * 60})
			case "afternoon":
				blocks = append(blocks, [2]int{14 * 60, 18 * 60})
			case "both":
				blocks = append(blocks, [2]int{8 * 60, 12 * 60}, [2]int{14 * 60, 18 * 60})
			}

			for _, block := range blocks {
				_, err := tx.Exec(ctx, `
					INSERT INTO availability_templates
						(id, doctor_id, specialty_id, weekday, start_min, end_min, slot_minutes, shift, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
				`, uuid.New(), id, specialty, weekday, block[0], block[1], slotMinutes, shift)
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("patients seeded")
	return nil
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d staff", count)

	for i := 0; i < count; i++ {
		role := "receptionist"
		if i == 0 {
			role = "admin"
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO staff (id, name, role, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), gofakeit.Name(), role)
		if err != nil {
			return err
		}
	}

	log.Println("staff seeded")
	return nil
}
