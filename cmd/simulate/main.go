package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/clinic-scheduling/internal/db"
)

// simulate fires concurrent bookings at the same doctor/date/slot through
// the HTTP API and reports how the race resolved. The expected outcome is
// exactly one 201 per slot; everyone else sees a slot conflict.

type SimConfig struct {
	BaseURL     string
	PostgresDSN string
	Workers     int
	Date        string
	Start       string
	End         string
	Timeout     time.Duration
}

type Outcome struct {
	mu        sync.Mutex
	created   int
	conflicts int
	errors    int
	latencies []time.Duration
}

func (o *Outcome) Record(status int, latency time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.latencies = append(o.latencies, latency)
	switch {
	case status == http.StatusCreated:
		o.created++
	case status == http.StatusConflict:
		o.conflicts++
	default:
		o.errors++
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	doctorID, specialtyID, start, end, err := pickDoctor(context.Background(), pool)
	if err != nil {
		log.Fatalf("pick doctor: %v", err)
	}
	if cfg.Start == "" {
		cfg.Start, cfg.End = start, end
	}

	patients, err := pickPatients(context.Background(), pool, cfg.Workers)
	if err != nil {
		log.Fatalf("pick patients: %v", err)
	}
	if len(patients) < cfg.Workers {
		log.Fatalf("need %d patients, found %d (run cmd/seed first)", cfg.Workers, len(patients))
	}

	log.Printf("racing %d workers for doctor=%s specialty=%s slot=%s %s-%s",
		cfg.Workers, doctorID, specialtyID, cfg.Date, cfg.Start, cfg.End)

	client := &http.Client{Timeout: cfg.Timeout}
	outcome := &Outcome{}

	var wg sync.WaitGroup
	startGun := make(chan struct{})

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(patientID uuid.UUID) {
			defer wg.Done()
			<-startGun

			body, _ := json.Marshal(map[string]any{
				"patient_id":   patientID.String(),
				"doctor_id":    doctorID.String(),
				"specialty_id": specialtyID.String(),
				"date":         cfg.Date,
				"start":        cfg.Start,
				"end":          cfg.End,
			})

			req, err := http.NewRequest(http.MethodPost, cfg.BaseURL+"/reservations", bytes.NewReader(body))
			if err != nil {
				outcome.Record(0, 0)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Actor-ID", patientID.String())

			begin := time.Now()
			resp, err := client.Do(req)
			latency := time.Since(begin)
			if err != nil {
				outcome.Record(0, latency)
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			outcome.Record(resp.StatusCode, latency)
		}(patients[i])
	}

	close(startGun)
	wg.Wait()

	printReport(outcome, cfg.Workers)
}

func printReport(o *Outcome, workers int) {
	fmt.Println("---- simulation report ----")
	fmt.Printf("workers:   %d\n", workers)
	fmt.Printf("created:   %d\n", o.created)
	fmt.Printf("conflicts: %d\n", o.conflicts)
	fmt.Printf("errors:    %d\n", o.errors)

	if len(o.latencies) > 0 {
		var total time.Duration
		min, max := o.latencies[0], o.latencies[0]
		for _, l := range o.latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}
		fmt.Printf("latency:   avg=%s min=%s max=%s\n", total/time.Duration(len(o.latencies)), min, max)
	}

	if o.created == 1 {
		fmt.Println("result:    OK, exactly one booking won the slot")
	} else {
		fmt.Printf("result:    UNEXPECTED, %d bookings won the slot\n", o.created)
	}
}

// pickDoctor selects a Monday template and derives the first slot on its
// grid, so the contested interval is one the resolver actually offers.
func pickDoctor(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, uuid.UUID, string, string, error) {
	var (
		doctorID, specialtyID uuid.UUID
		startMin, slotMinutes int
	)
	err := pool.QueryRow(ctx, `
		SELECT doctor_id, specialty_id, start_min, slot_minutes
		FROM availability_templates
		WHERE weekday = 1
		LIMIT 1
	`).Scan(&doctorID, &specialtyID, &startMin, &slotMinutes)
	if err != nil {
		return uuid.Nil, uuid.Nil, "", "", err
	}

	start := fmt.Sprintf("%02d:%02d", startMin/60, startMin%60)
	endMin := startMin + slotMinutes
	end := fmt.Sprintf("%02d:%02d", endMin/60, endMin%60)
	return doctorID, specialtyID, start, end, nil
}

func pickPatients(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadConfig() SimConfig {
	nextMonday := time.Now().AddDate(0, 0, 1)
	for nextMonday.Weekday() != time.Monday {
		nextMonday = nextMonday.AddDate(0, 0, 1)
	}

	return SimConfig{
		BaseURL:     getEnv("BASE_URL", "http://127.0.0.1:8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Workers:     getInt("WORKERS", 20),
		Date:        getEnv("SLOT_DATE", nextMonday.Format("2006-01-02")),
		Start:       os.Getenv("SLOT_START"),
		End:         os.Getenv("SLOT_END"),
		Timeout:     10 * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
