package queue

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const EventObjectCreated = "s3:ObjectCreated:Put"

// ObjectEvent follows the S3 event notification layout, which is also what
// MinIO sends to an AMQP target, so bucket notifications and events published
// by the API are handled the same way.
type ObjectEvent struct {
	Records []EventRecord `json:"Records"`
}

type EventRecord struct {
	EventName string    `json:"eventName"`
	EventTime time.Time `json:"eventTime"`
	S3        S3Entity  `json:"s3"`
}

type S3Entity struct {
	Bucket S3Bucket `json:"bucket"`
	Object S3Object `json:"object"`
}

type S3Bucket struct {
	Name string `json:"name"`
}

type S3Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size,omitempty"`
}

func NewObjectCreatedEvent(bucket, key string, size int64) ObjectEvent {
	return ObjectEvent{
		Records: []EventRecord{{
			EventName: EventObjectCreated,
			EventTime: time.Now().UTC(),
			S3: S3Entity{
				Bucket: S3Bucket{Name: bucket},
				Object: S3Object{Key: url.QueryEscape(key), Size: size},
			},
		}},
	}
}

// ParseObjectKeys decodes an event body and returns its object keys. Keys in
// S3 notifications are URL-encoded.
func ParseObjectKeys(body []byte) ([]string, error) {
	var event ObjectEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("evento inválido: %w", err)
	}

	keys := make([]string, 0, len(event.Records))
	for _, record := range event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("chave inválida no evento %q: %w", record.S3.Object.Key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
