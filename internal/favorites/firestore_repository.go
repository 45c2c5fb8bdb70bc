package favorites

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
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

const favoritesCollection = "favorites"

func (r *firestoreRepository) userCollection(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection(favoritesCollection)
}

func (r *firestoreRepository) List(ctx context.Context, userID string) ([]Entry, error) {
	iter := r.userCollection(userID).Documents(ctx)
	defer iter.Stop()

	entries := make([]Entry, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, snapshotToEntry(doc))
	}
	return entries, nil
}

func (r *firestoreRepository) Put(ctx context.Context, userID string, entry Entry) error {
	if entry.MovieID == "" {
		return errors.New("favorite entry requires a movie id")
	}
	_, err := r.userCollection(userID).Doc(entry.MovieID).Set(ctx, map[string]any{
		"title":       entry.Title,
		"poster_path": entry.PosterPath,
	})
	return err
}

func (r *firestoreRepository) Delete(ctx context.Context, userID, movieID string) error {
	_, err := r.userCollection(userID).Doc(movieID).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

func (r *firestoreRepository) Watch(ctx context.Context, userID string, fn func([]Entry)) error {
	it := r.userCollection(userID).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if ctx.Err() != nil || status.Code(err) == codes.Canceled {
			return nil
		}
		if err != nil {
			return err
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return err
		}
		entries := make([]Entry, 0, len(docs))
		for _, doc := range docs {
			entries = append(entries, snapshotToEntry(doc))
		}
		fn(entries)
	}
}

// snapshotToEntry tolerates entries written by older clients that stored only poster_path.
func snapshotToEntry(doc *firestore.DocumentSnapshot) Entry {
	data := doc.Data()
	entry := Entry{MovieID: doc.Ref.ID}
	if v, ok := data["title"].(string); ok {
		entry.Title = v
	}
	if v, ok := data["poster_path"].(string); ok {
		entry.PosterPath = v
	}
	return entry
}
