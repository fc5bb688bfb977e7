package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campusattend/internal/attendance"
	"campusattend/internal/config"
	"campusattend/internal/geo"
	"campusattend/internal/queue"
	"campusattend/internal/store"
)

// Worker consumes newly accepted record ids and applies the geolocation
// distance policy: when a course has a registered location and
// GEO_RADIUS_M is set, records captured outside the radius are re-marked
// as flagged. With the radius unset every captured position is accepted,
// matching the default engine behavior.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		log.Println("memory queue backend is single-process: records published by the API will never reach this worker, use the redis backend")
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	repo := attendance.NewRepository(db.Client)

	if cfg.GeoRadiusM <= 0 {
		log.Println("GEO_RADIUS_M not set, distance policy disabled")
	} else {
		log.Printf("distance policy active, radius %.0f m", cfg.GeoRadiusM)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for records...")
	for msg := range messages {
		if msg.Type != "record" {
			continue
		}
		processRecord(ctx, repo, cfg.GeoRadiusM, msg.Body)
	}

	log.Println("worker stopped")
}

func processRecord(ctx context.Context, repo *attendance.Repository, radiusM float64, id string) {
	rec, err := repo.GetRecord(ctx, id)
	if err != nil {
		log.Printf("fetch record %s failed: %v", id, err)
		return
	}

	if radiusM <= 0 || rec.Method != attendance.MethodGeolocation || rec.Location == nil {
		return
	}

	course, err := repo.GetCourse(ctx, rec.ClassID)
	if err != nil {
		log.Printf("fetch course %s failed: %v", rec.ClassID, err)
		return
	}
	if course == nil || course.Location == nil {
		return
	}

	dist := geo.Distance(*rec.Location, *course.Location)
	if dist <= radiusM {
		log.Printf("record %s within %.0f m of %s (%.0f m)", id, radiusM, course.Code, dist)
		return
	}

	log.Printf("record %s is %.0f m from %s, flagging", id, dist, course.Code)
	if err := repo.UpdateRecordStatus(ctx, id, attendance.StatusFlagged); err != nil {
		log.Printf("flag record %s failed: %v", id, err)
	}
}
