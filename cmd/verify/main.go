package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusattend/internal/apiclient"
	"campusattend/internal/attendance"
	"campusattend/internal/config"
	"campusattend/internal/device"
	"campusattend/internal/geo"
	"campusattend/internal/verify"
)

// verify runs one attendance verification session against the API using
// simulated devices. It exists for dev and smoke-testing the full
// engine-to-service path without hardware.
func main() {
	var (
		method  = flag.String("method", "manual", "attendance method: qr_code, geolocation, facial_recognition, manual")
		course  = flag.String("course", "", "course id (not needed for qr_code)")
		qrText  = flag.String("qr", "", "payload text the simulated scanner decodes")
		lat     = flag.Float64("lat", 12.9716, "simulated device latitude")
		lng     = flag.Float64("lng", 77.5946, "simulated device longitude")
		noFace  = flag.Bool("no-face", false, "simulate a failed presence check")
		timeout = flag.Duration("timeout", 30*time.Second, "overall session timeout")
	)
	flag.Parse()

	cfg := config.Load()

	m, err := attendance.ParseMethod(*method)
	if err != nil {
		log.Fatalf("bad -method: %v", err)
	}

	camera := &device.SimCamera{Frames: []device.Frame{nil, nil, device.Frame(*qrText)}}
	acquirers := verify.Acquirers{
		QR:     verify.NewQRAcquirer(camera, device.TextDecoder{}),
		Geo:    verify.NewGeoAcquirer(&device.SimLocator{Pos: geo.Position{Lat: *lat, Lng: *lng}}, 0),
		Face:   verify.NewFaceAcquirer(camera, device.StaticPresence{Present: !*noFace}),
		Manual: &verify.ManualAcquirer{},
	}

	client := apiclient.New(cfg.APIBaseURL, cfg.APIToken)
	session := verify.NewSession(client, acquirers)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("cancelling session")
		cancel()
	}()

	if _, err := session.SelectMethod(m, *course); err != nil {
		log.Fatalf("select method: %v", err)
	}

	switch session.Begin(ctx) {
	case verify.StateSucceeded:
		rec := session.Result()
		log.Printf("attendance marked: id=%s class=%s method=%s status=%s", rec.ID, rec.ClassID, rec.Method, rec.Status)
	case verify.StateFailed:
		ferr := session.Err()
		log.Fatalf("verification failed (%s): %s", ferr.Kind, ferr.Error())
	default:
		log.Fatalf("session ended in unexpected state %s", session.State())
	}
}
