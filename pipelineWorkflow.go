package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/lendfocus/mortgage_backend/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	applicationMutexMap = make(map[int]*sync.Mutex)
	globalMutex         = &sync.Mutex{}
)

// applicationMutex gets or creates the in-process mutex for an ApplicationId.
func applicationMutex(applicationId int) *sync.Mutex {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	mutex, exists := applicationMutexMap[applicationId]
	if !exists {
		mutex = &sync.Mutex{}
		applicationMutexMap[applicationId] = mutex
	}
	return mutex
}

func RunPipelineWorkflow() error {
	logger := config.GetLogger()
	ctx := context.Background()
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, os.Getenv("PUBSUB_TOPIC"))
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, os.Getenv("PUBSUB_SUBSCRIPTION"), topic)
	if err != nil {
		return err
	}
	// Specify the number of concurrent processes
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	// Create a callback function to handle messages.
	callback := func(ctx context.Context, msg *pubsub.Message) {
		m := config.PubSubMessage{}
		err := json.Unmarshal(msg.Data, &m)
		if err != nil {
			config.LogError(logger, "PipelineWorkflow.go", "RunPipelineWorkflow", "Unmarshaling pubsub message", msg.Data, err)
			return
		}

		// Lock the specific application mutex
		mutex := applicationMutex(m.ApplicationId)
		mutex.Lock()
		defer mutex.Unlock()

		ctx = context.WithValue(ctx, utils.ContextKeyUserId, 0)
		ctx = context.WithValue(ctx, utils.ContextKeyUserName, "System")
		correlationID := m.CorrelationId
		if correlationID == "" {
			correlationID = msg.ID
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationID)
		if err := ProcessMessage(ctx, logger, m); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "PipelineWorkflow",
				"application_id": m.ApplicationId,
				"trigger":        m.Trigger,
				"reference_type": m.ReferenceType,
				"reference_id":   m.ReferenceId,
				"message_id":     msg.ID,
			}).Error("pubsub processing failed: " + err.Error())
			msg.Nack()
			return
		}
		msg.Ack()
	}

	// Receive messages.
	go func() {
		err := sub.Receive(ctx, callback)

		if err != nil {
			config.LogError(logger, "PipelineWorkflow.go", "RunPipelineWorkflow", "Failed to receive messages", nil, err)
		}
	}()

	return nil
}

func ProcessMessage(ctx context.Context, logger *logrus.Logger, m config.PubSubMessage) error {
	db := config.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		// Enforce strict per-application ordering across instances.
		if err := workflow.AcquireApplicationLock(tx.WithContext(ctx), m.ApplicationId); err != nil {
			return err
		}
		defer workflow.ReleaseApplicationLock(tx.WithContext(ctx), m.ApplicationId)

		handlerName := "pipeline"
		messageId := strconv.Itoa(m.ID)

		skip, err := workflow.BeginIdempotency(tx.WithContext(ctx), m.ApplicationId, handlerName, messageId)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		// IMPORTANT: do not call tx.Commit()/tx.Rollback() inside db.Transaction.
		// Returning error triggers rollback; returning nil commits.
		if err := workflow.ProcessPipelineWorkflow(tx.WithContext(ctx), logger, m); err != nil {
			_ = workflow.MarkIdempotencyFailed(tx.WithContext(ctx), m.ApplicationId, handlerName, messageId, err)
			return err
		}
		if err := workflow.MarkIdempotencySucceeded(tx.WithContext(ctx), m.ApplicationId, handlerName, messageId); err != nil {
			return err
		}
		if m.ID > 0 {
			now := time.Now().UTC()
			if err := tx.WithContext(ctx).Model(&models.PubSubMessageRecord{}).
				Where("id = ?", m.ID).
				Updates(map[string]interface{}{
					"is_processed": true,
					"processed_at": &now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
