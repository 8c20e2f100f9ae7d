package domain

import "strings"

// StorageEvent is the notification body an S3-compatible object store posts
// when objects are created. AWS S3 event notifications and MinIO webhook
// targets share this shape; only the fields the callback reads are mapped.
type StorageEvent struct {
	EventName string               `json:"EventName,omitempty"` // MinIO only
	Key       string               `json:"Key,omitempty"`       // MinIO only: "<bucket>/<key>"
	Records   []StorageEventRecord `json:"Records"`
}

// StorageEventRecord describes one object affected by the event.
type StorageEventRecord struct {
	EventSource string `json:"eventSource"`
	EventName   string `json:"eventName"`
	S3          struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"` // URL-encoded, as delivered by S3
			Size int64  `json:"size"`
			ETag string `json:"eTag"`
		} `json:"object"`
	} `json:"s3"`
}

// ObjectRecords returns the records to process. A MinIO payload without
// Records still names the object in its top-level Key ("<bucket>/<key>").
func (e *StorageEvent) ObjectRecords() []StorageEventRecord {
	if len(e.Records) > 0 || e.Key == "" {
		return e.Records
	}

	var record StorageEventRecord
	record.EventName = e.EventName
	bucket, key, found := strings.Cut(e.Key, "/")
	if !found {
		key = bucket
		bucket = ""
	}
	record.S3.Bucket.Name = bucket
	record.S3.Object.Key = key
	return []StorageEventRecord{record}
}
