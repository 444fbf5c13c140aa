package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphmirror/internal/ir"
)

func TestDefaultRegistryCatalogue(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{
		EntityUser, EntityFriend, EntityLike, EntityAlbum,
		EntityPhoto, EntityLink, EntityNotification, EntityStream,
	}, r.Names())

	tests := []struct {
		entity   string
		primary  string
		owner    string
		stream   bool
		rowLimit int
		fields   int
	}{
		{EntityUser, "uid", SessionOnly, true, 5000, 27},
		{EntityFriend, "uid2", "uid1", false, 0, 2},
		{EntityLike, "object_id", "user_id", false, 0, 4},
		{EntityAlbum, "aid", "owner", false, 0, 25},
		{EntityPhoto, "pid", "owner", false, 0, 36},
		{EntityLink, "link_id", "owner", false, 0, 16},
		{EntityNotification, "notification_id", SessionOnly, true, 500, 16},
		{EntityStream, "post_id", SessionOnly, true, 50, 30},
	}

	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			s, ok := r.Lookup(tt.entity)
			require.True(t, ok)
			assert.Equal(t, tt.primary, s.PrimaryIdentifier)
			assert.Equal(t, tt.owner, s.OwnerIdentifier)
			assert.Equal(t, tt.stream, s.IsStream)
			assert.Equal(t, tt.rowLimit, s.RowLimit)
			assert.Len(t, s.Fields, tt.fields)
			assert.NotContains(t, s.FieldNames(), "id")
			assert.NotContains(t, s.FieldNames(), "user")
		})
	}

	_, ok := r.Lookup("event")
	assert.False(t, ok)
}

func TestSchemaAccessors(t *testing.T) {
	album, _ := Default().Lookup(EntityAlbum)

	assert.Equal(t, "aid", album.Primary().Name)
	assert.Equal(t, KindText, album.Primary().Kind)

	owner, ok := album.Owner()
	require.True(t, ok)
	assert.Equal(t, EntityUser, owner.Target)
	assert.False(t, owner.Nullable)

	ci, ok := album.Field("comment_info")
	require.True(t, ok)
	assert.Equal(t, "comment_info relation(comment_info)?", ci.String())

	stream, _ := Default().Lookup(EntityStream)
	assert.True(t, stream.SessionScoped())
	_, ok = stream.Owner()
	assert.False(t, ok)
}

func TestStructKinds(t *testing.T) {
	r := Default()

	for _, kind := range []string{StructAgeRange, StructCommentInfo, StructLikeInfo} {
		assert.True(t, r.IsStruct(kind), kind)
	}
	assert.False(t, r.IsStruct(EntityUser))

	like, ok := r.Struct(StructLikeInfo)
	require.True(t, ok)
	assert.Equal(t, "like_count", like.Fallbacks["count"])
}

func TestCheckKeys(t *testing.T) {
	friend, _ := Default().Lookup(EntityFriend)

	require.NoError(t, friend.CheckKeys(0, ir.RemoteRecord{"uid1": 1, "uid2": 2}))

	err := friend.CheckKeys(3, ir.RemoteRecord{"uid1": 1})
	require.Error(t, err)
	assert.True(t, ir.IsSchemaMismatch(err))
	assert.Contains(t, err.Error(), "record 3: missing uid2")

	err = friend.CheckKeys(0, ir.RemoteRecord{"uid1": 1, "uid2": 2, "id": 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected id")
}

func TestRetype(t *testing.T) {
	link, _ := Default().Lookup(EntityLink)

	out := link.Retype(ir.IRObject{
		"created_time":   ir.IRString("2013-01-01T00:00:00Z"),
		"title":          ir.IRString("2013-01-01T00:00:00Z"),
		"backdated_time": ir.IRNull{},
	})

	created, ok := out["created_time"].(ir.IRTime)
	require.True(t, ok)
	assert.True(t, created.Time().Equal(time.Unix(1356998400, 0)))
	assert.Equal(t, ir.IRString("2013-01-01T00:00:00Z"), out["title"])
	assert.Equal(t, ir.IRNull{}, out["backdated_time"])
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name    string
		schemas []*Schema
		wantErr string
	}{
		{
			name: "primary not a field",
			schemas: []*Schema{{
				Name: "thing", PrimaryIdentifier: "tid", OwnerIdentifier: SessionOnly, RowLimit: 1,
				Fields: []FieldSpec{text("name")},
			}},
			wantErr: "primary identifier",
		},
		{
			name: "session scope without row limit",
			schemas: []*Schema{{
				Name: "thing", PrimaryIdentifier: "tid", OwnerIdentifier: SessionOnly,
				Fields: []FieldSpec{integer("tid")},
			}},
			wantErr: "row limit",
		},
		{
			name: "owner relates to struct",
			schemas: []*Schema{{
				Name: "thing", PrimaryIdentifier: "tid", OwnerIdentifier: "age",
				Fields: []FieldSpec{integer("tid"), relation("age", StructAgeRange)},
			}},
			wantErr: "must relate to an entity",
		},
		{
			name: "unknown relation target",
			schemas: []*Schema{{
				Name: "thing", PrimaryIdentifier: "tid", OwnerIdentifier: SessionOnly, RowLimit: 1,
				Fields: []FieldSpec{integer("tid"), relation("page", "page")},
			}},
			wantErr: "unknown target",
		},
		{
			name: "local-only field",
			schemas: []*Schema{{
				Name: "thing", PrimaryIdentifier: "tid", OwnerIdentifier: SessionOnly, RowLimit: 1,
				Fields: []FieldSpec{integer("tid"), integer("id")},
			}},
			wantErr: "local-only",
		},
		{
			name: "duplicate field",
			schemas: []*Schema{{
				Name: "thing", PrimaryIdentifier: "tid", OwnerIdentifier: SessionOnly, RowLimit: 1,
				Fields: []FieldSpec{integer("tid"), text("tid")},
			}},
			wantErr: "duplicate field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.schemas, Structs())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
