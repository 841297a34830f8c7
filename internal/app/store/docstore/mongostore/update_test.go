package mongostore

import (
	"testing"

	"github.com/dalemusser/circlehub/internal/app/store/docstore"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildUpdates(t *testing.T) {
	card := bson.M{"id": "card1"}
	tests := []struct {
		name string
		ops  []docstore.Op
		want []bson.M
	}{
		{
			name: "increment and set share one update",
			ops:  []docstore.Op{docstore.Increment("echoCount", 1), docstore.SetField("lastEchoAt", "t")},
			want: []bson.M{{
				"$inc": bson.M{"echoCount": int64(1)},
				"$set": bson.M{"lastEchoAt": "t"},
			}},
		},
		{
			name: "remove then add on the same field splits",
			ops:  []docstore.Op{docstore.ArrayRemove("cards", card), docstore.ArrayUnion("cards", card)},
			want: []bson.M{
				{"$pull": bson.M{"cards": card}},
				{"$addToSet": bson.M{"cards": bson.M{"$each": bson.A{card}}}},
			},
		},
		{
			name: "multi-value remove uses $in",
			ops:  []docstore.Op{docstore.ArrayRemove("tags", "a", "b")},
			want: []bson.M{{"$pull": bson.M{"tags": bson.M{"$in": bson.A{"a", "b"}}}}},
		},
		{
			name: "no ops",
			ops:  nil,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildUpdates(tt.ops)
			if err != nil {
				t.Fatalf("buildUpdates failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("updates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildUpdates_RejectsID(t *testing.T) {
	if _, err := buildUpdates([]docstore.Op{docstore.SetField("_id", "x")}); err == nil {
		t.Fatal("expected error when updating _id")
	}
}
