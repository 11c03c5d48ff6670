package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "insights-dashboard/internal/errors"
)

// FirestoreConfig configures a FirestoreStore.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	// EmulatorHost points the client at a local emulator. The client library
	// reads FIRESTORE_EMULATOR_HOST itself; this field only documents intent
	// and is applied by the caller through the environment.
	EmulatorHost string
}

// FirestoreStore implements InsightStore on Cloud Firestore. The dashboard
// never writes to it.
type FirestoreStore struct {
	client *firestore.Client
	logger zerolog.Logger
}

// NewFirestoreStore creates a Firestore client for the configured project.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig, logger zerolog.Logger) (*FirestoreStore, error) {
	if cfg.ProjectID == "" {
		return nil, apperrors.NewValidationError("project_id", cfg.ProjectID, "firestore project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: creating firestore client: %v", apperrors.ErrStoreUnavailable, err)
	}

	return &FirestoreStore{
		client: client,
		logger: logger.With().Str("component", "firestore_store").Str("project", cfg.ProjectID).Logger(),
	}, nil
}

// Snapshots implements InsightStore using Query.Snapshots.
func (f *FirestoreStore) Snapshots(ctx context.Context, q Query) (SnapshotIterator, error) {
	fq := f.client.Collection(q.Collection).Query
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &firestoreIterator{
		it:     fq.Snapshots(ctx),
		ctx:    ctx,
		cancel: cancel,
		logger: f.logger,
	}, nil
}

// Close closes the Firestore client.
func (f *FirestoreStore) Close() error {
	return f.client.Close()
}

type firestoreIterator struct {
	it     *firestore.QuerySnapshotIterator
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	failed bool
	once   sync.Once
}

// Next implements SnapshotIterator.
//
// A Firestore snapshot iterator cannot recover once it has failed; it keeps
// returning the same error. After reporting the failure once, Next parks
// until the iterator is stopped so the subscription stays registered
// without spinning.
func (fi *firestoreIterator) Next() (*Snapshot, error) {
	if fi.failed {
		<-fi.ctx.Done()
		return nil, apperrors.ErrSubscriptionClosed
	}

	qs, err := fi.it.Next()
	if err != nil {
		if fi.ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
			return nil, apperrors.ErrSubscriptionClosed
		}
		fi.failed = true
		return nil, err
	}

	docs, err := qs.Documents.GetAll()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot documents: %w", err)
	}

	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, Document{ID: d.Ref.ID, Data: d.Data()})
	}

	fi.logger.Debug().
		Int("documents", len(out)).
		Int("changes", len(qs.Changes)).
		Time("read_time", qs.ReadTime).
		Msg("Firestore snapshot")

	return &Snapshot{Documents: out, ReadTime: qs.ReadTime}, nil
}

// Stop implements SnapshotIterator.
func (fi *firestoreIterator) Stop() {
	fi.once.Do(func() {
		fi.cancel()
		fi.it.Stop()
	})
}
