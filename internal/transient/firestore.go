package transient

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var CollectionPrefix = "dev"

type fsTransientData struct {
	Value     []byte
	ExpiresAt time.Time
}

// FirestoreStore keeps transients in a Firestore collection so they survive restarts.
// Expired documents are treated as absent and removed lazily on read.
type FirestoreStore struct {
	db  *firestore.Client
	now func() time.Time
}

func NewFirestoreStore(db *firestore.Client) *FirestoreStore {
	return &FirestoreStore{db: db, now: time.Now}
}

func (f *FirestoreStore) getDocRef(key string) *firestore.DocumentRef {
	return f.db.Collection(CollectionPrefix + "-transients").Doc(key)
}

func (f *FirestoreStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := f.getDocRef(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var data fsTransientData
	if dErr := res.DataTo(&data); dErr != nil {
		return nil, false, dErr
	}
	if !data.ExpiresAt.IsZero() && !f.now().Before(data.ExpiresAt) {
		if _, dErr := f.getDocRef(key).Delete(ctx); dErr != nil {
			return nil, false, dErr
		}
		return nil, false, nil
	}
	return data.Value, true, nil
}

func (f *FirestoreStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	data := &fsTransientData{Value: value}
	if ttl > 0 {
		data.ExpiresAt = f.now().Add(ttl)
	}
	_, err := f.getDocRef(key).Set(ctx, data)
	return err
}

func (f *FirestoreStore) Delete(ctx context.Context, key string) error {
	_, err := f.getDocRef(key).Delete(ctx)
	return err
}
