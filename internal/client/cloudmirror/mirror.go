// Package cloudmirror keeps an explicit copy of the local slots of one
// storage key in an S3-compatible bucket. Backup and Restore overwrite the
// other side entirely; nothing is merged.
package cloudmirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/spendwise/internal/client/identity"
	"github.com/dmitrijs2005/spendwise/internal/client/localstore"
	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/logging"
)

const userSlot = "currentUser"

var ErrNoBackup = errors.New("no backup found")

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type Mirror struct {
	api    objectAPI
	bucket string
	prefix string
	store  *localstore.Store
	logger logging.Logger
	now    func() time.Time
}

// New builds an S3 client from cfg. Static credentials are used when an
// access key is set, the default chain otherwise.
func New(ctx context.Context, cfg Config, store *localstore.Store, logger logging.Logger) (*Mirror, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("cloud mirror: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newMirror(api, cfg.Bucket, cfg.Prefix, store, logger), nil
}

func newMirror(api objectAPI, bucket, prefix string, store *localstore.Store, logger logging.Logger) *Mirror {
	if logger == nil {
		logger = logging.Nop()
	}
	if prefix == "" {
		prefix = "spendwise"
	}
	return &Mirror{
		api:    api,
		bucket: bucket,
		prefix: prefix,
		store:  store,
		logger: logger.With("component", "cloudmirror"),
		now:    time.Now,
	}
}

func (m *Mirror) objectKey(slot string) string {
	return path.Join(m.prefix, slot+".json")
}

// Backup uploads the record slots of key, the current user and the monthly
// limit, then records the backup time.
func (m *Mirror) Backup(ctx context.Context, key models.StorageKey) error {
	for _, kind := range models.RecordKinds {
		records := m.store.LoadRecords(ctx, kind, key)
		if err := m.put(ctx, localstore.RecordsSlot(kind, key), records); err != nil {
			return err
		}
	}
	if u := m.store.LoadUser(ctx); u != nil {
		if err := m.put(ctx, userSlot, u); err != nil {
			return err
		}
	}
	var limit *string
	if v, ok := m.store.Preferences().MonthlyLimit(ctx); ok {
		s := v.String()
		limit = &s
	}
	if err := m.put(ctx, models.PrefMonthlyLimit, limit); err != nil {
		return err
	}

	at := m.now()
	m.store.Preferences().SetLastCloudBackupAt(ctx, at)
	m.logger.Info(ctx, "backup uploaded", "key", key, "bucket", m.bucket)
	return nil
}

// Restore downloads the record slots of key and the monthly limit and
// overwrites the local copies. The stored user is restored only when it
// maps to key.
func (m *Mirror) Restore(ctx context.Context, key models.StorageKey) error {
	collections := make(map[models.RecordKind][]models.Record, len(models.RecordKinds))
	for _, kind := range models.RecordKinds {
		var records []models.Record
		found, err := m.get(ctx, localstore.RecordsSlot(kind, key), &records)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w for %s", ErrNoBackup, key)
		}
		for i := range records {
			records[i].Kind = kind
			if err := records[i].Validate(); err != nil {
				return fmt.Errorf("restore %s: %w", kind, err)
			}
		}
		collections[kind] = records
	}

	var limit *string
	if _, err := m.get(ctx, models.PrefMonthlyLimit, &limit); err != nil {
		return err
	}
	var user models.User
	userFound, err := m.get(ctx, userSlot, &user)
	if err != nil {
		return err
	}

	for kind, records := range collections {
		m.store.SaveRecords(ctx, kind, key, records)
	}
	prefs := m.store.Preferences()
	if limit == nil {
		prefs.SetMonthlyLimit(ctx, nil)
	} else if v, err := decimal.NewFromString(*limit); err == nil {
		prefs.SetMonthlyLimit(ctx, &v)
	}
	if userFound && user.Validate() == nil && identity.DeriveStorageKey(user) == key {
		m.store.SaveUser(ctx, &user)
	}

	m.logger.Info(ctx, "backup restored", "key", key, "bucket", m.bucket)
	return nil
}

func (m *Mirror) put(ctx context.Context, slot string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	_, err = m.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.objectKey(slot)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", slot, err)
	}
	return nil
}

func (m *Mirror) get(ctx context.Context, slot string, v any) (bool, error) {
	out, err := m.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.objectKey(slot)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return false, nil
		}
		return false, fmt.Errorf("download %s: %w", slot, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", slot, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", slot, err)
	}
	return true, nil
}
