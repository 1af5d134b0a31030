// fee-trigger-listener pulls generation triggers from Pub/Sub and runs
// the monthly fee batch for each one. Deploy it where push delivery is
// not available; the push endpoint on the API server covers Cloud Run.
//
// Env:
//
//	PUBSUB_PROJECT_ID        GCP project
//	FEE_TRIGGER_TOPIC        topic the scheduler publishes to
//	FEE_TRIGGER_SUBSCRIPTION subscription name (created if missing)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	logger := config.GetLogger()

	client, err := config.GetClient(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pubsub client failed: %v\n", err)
		os.Exit(1)
	}

	topicName := os.Getenv("FEE_TRIGGER_TOPIC")
	subName := os.Getenv("FEE_TRIGGER_SUBSCRIPTION")
	if topicName == "" || subName == "" {
		fmt.Fprintln(os.Stderr, "FEE_TRIGGER_TOPIC and FEE_TRIGGER_SUBSCRIPTION are required")
		os.Exit(2)
	}

	topic, err := config.CreateTopicIfNotExists(client, topicName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "topic setup failed: %v\n", err)
		os.Exit(1)
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, subName, topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "subscription setup failed: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"topic":        topicName,
		"subscription": subName,
	}).Info("fee trigger listener started")

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var trigger config.GenerationTrigger
		if err := json.Unmarshal(msg.Data, &trigger); err != nil {
			config.LogError(logger, "main.go", "Receive", "Unmarshal trigger", string(msg.Data), err)
			// poisoned message, drop it
			msg.Ack()
			return
		}
		if trigger.FeeYear == 0 || trigger.FeeMonth == 0 {
			config.LogError(logger, "main.go", "Receive", "Invalid trigger (missing period)", trigger, fmt.Errorf("fee_year/fee_month required"))
			msg.Ack()
			return
		}

		outcomes, err := workflow.GenerateMonthlyFees(db, logger, trigger.FeeYear, trigger.FeeMonth, trigger.HostelIds)
		if err != nil {
			config.LogError(logger, "main.go", "Receive", "GenerateMonthlyFees", trigger, err)
			// Nack so Pub/Sub retries (and potentially routes to DLQ).
			msg.Nack()
			return
		}

		logger.WithFields(logrus.Fields{
			"fee_year":       trigger.FeeYear,
			"fee_month":      trigger.FeeMonth,
			"hostels":        len(outcomes),
			"message_id":     msg.ID,
			"correlation_id": trigger.CorrelationId,
		}).Info("generation trigger processed")
		msg.Ack()
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "receive loop failed: %v\n", err)
		os.Exit(1)
	}
}
