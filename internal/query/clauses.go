package query

import "github.com/roach88/graphmirror/internal/schema"

// Clauses are the filter clauses used to fetch an entity for the viewer
// ("self") and for one of the viewer's friends. Friend is a template with
// a single %d verb; it is empty for entities only ever fetched for the
// viewer.
type Clauses struct {
	Self   string
	Friend string
}

// HasFriend reports whether the entity can be fetched per friend.
func (c Clauses) HasFriend() bool {
	return c.Friend != ""
}

// ForFriend returns the friend clause for one friend uid.
func (c Clauses) ForFriend(uid int64) string {
	return ForContext(c.Friend, uid)
}

var clauses = map[string]Clauses{
	schema.EntityUser:         {Self: "WHERE uid=me()", Friend: "WHERE uid=%d"},
	schema.EntityFriend:       {Self: "WHERE uid1=me()"},
	schema.EntityLike:         {Self: "WHERE user_id=me()", Friend: "WHERE user_id=%d"},
	schema.EntityAlbum:        {Self: "WHERE owner=me()", Friend: "WHERE owner=%d"},
	schema.EntityPhoto:        {Self: "WHERE owner=me() limit 5000", Friend: "WHERE owner=%d limit 5000"},
	schema.EntityLink:         {Self: "WHERE owner=me() limit 5000", Friend: "WHERE owner=%d limit 5000"},
	schema.EntityNotification: {Self: "WHERE recipient_id=me()"},
	schema.EntityStream: {
		Self: "WHERE filter_key in (SELECT filter_key FROM stream_filter WHERE uid=me())",
	},
}

// ClausesFor returns the fetch clauses of an entity.
func ClausesFor(entity string) (Clauses, bool) {
	c, ok := clauses[entity]
	return c, ok
}
