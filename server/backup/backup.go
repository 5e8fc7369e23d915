// Package backup takes periodic CSV snapshots of the registry and
// ships them to a Google Cloud Storage bucket.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pastoralsj/registro/server/export"
	"github.com/pastoralsj/registro/server/store"
	"github.com/pastoralsj/registro/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var ErrObjectNotExist = storage.ErrObjectNotExist

type GStorage struct {
	storageClient *storage.Client
}

func NewGStorage(credentialsFilePath string) (*GStorage, error) {
	var client *storage.Client
	var err error

	if credentialsFilePath != "" {
		client, err = storage.NewClient(context.Background(), option.WithCredentialsFile(credentialsFilePath))
	} else {
		client, err = storage.NewClient(context.Background())
	}

	if err != nil {
		return nil, fmt.Errorf("NewGStorage: %v", err)
	}

	return &GStorage{storageClient: client}, nil
}

// UploadFile uploads an object.
func (gs *GStorage) UploadFile(bucket, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("os.Open: %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*50)
	defer cancel()

	wc := gs.storageClient.Bucket(bucket).Object(objectName).NewWriter(ctx)
	if _, err = io.Copy(wc, f); err != nil {
		return fmt.Errorf("io.Copy: %v", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %v", err)
	}

	return nil
}

// Snapshotter produces the registry snapshot the scheduler runs on the
// configured cron expression.
type Snapshotter struct {
	recordStore store.Store
	gs          *GStorage
	bucket      string
	prefix      string
	stagingDir  string
	logg        *zap.SugaredLogger
}

func NewSnapshotter(
	recordStore store.Store,
	gs *GStorage,
	bucket, prefix, stagingDir string,
	logg *zap.SugaredLogger,
) *Snapshotter {
	return &Snapshotter{
		recordStore: recordStore,
		gs:          gs,
		bucket:      bucket,
		prefix:      prefix,
		stagingDir:  stagingDir,
		logg:        logg,
	}
}

// Run dumps every record to a staged CSV and uploads it. The staged
// file is removed after a successful upload.
func (s *Snapshotter) Run() error {
	members, err := s.recordStore.ListAll(context.Background(), "full_name")
	if err != nil {
		return fmt.Errorf("backup: listing records: %v", err)
	}

	if err := utils.CreateDirIfNotExist(s.stagingDir); err != nil {
		return fmt.Errorf("backup: %v", err)
	}

	objectName := fmt.Sprintf("%s-registro-%s.csv", s.prefix, time.Now().UTC().Format("20060102-150405"))
	filePath := filepath.Join(s.stagingDir, objectName)

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("backup: %v", err)
	}

	if err := export.WriteCSV(f, members); err != nil {
		f.Close()
		return fmt.Errorf("backup: writing snapshot: %v", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("backup: %v", err)
	}

	if err := s.gs.UploadFile(s.bucket, objectName, filePath); err != nil {
		return fmt.Errorf("backup: %v", err)
	}

	if err := os.Remove(filePath); err != nil {
		s.logg.Warnf("backup: could not remove staged file %v: %v", filePath, err)
	}

	s.logg.Infof("backup: snapshot %v uploaded to bucket %v", objectName, s.bucket)
	return nil
}
