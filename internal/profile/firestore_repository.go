package profile

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository instantiates a Firestore-backed repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID)
}

func (r *firestoreRepository) Get(ctx context.Context, userID string) (map[string]any, error) {
	snap, err := r.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return snap.Data(), nil
}

func (r *firestoreRepository) Set(ctx context.Context, userID string, fields map[string]any) error {
	_, err := r.doc(userID).Set(ctx, fields)
	return err
}
