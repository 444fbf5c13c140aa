package schema

// Entity names.
const (
	EntityUser         = "user"
	EntityFriend       = "friend"
	EntityLike         = "like"
	EntityAlbum        = "album"
	EntityPhoto        = "photo"
	EntityLink         = "link"
	EntityNotification = "notification"
	EntityStream       = "stream"
)

// Struct kinds.
const (
	StructAgeRange    = "age_range"
	StructCommentInfo = "comment_info"
	StructLikeInfo    = "like_info"
)

// Structs returns the shared struct kinds.
func Structs() []*StructSpec {
	return []*StructSpec{
		{
			Kind:   StructAgeRange,
			Fields: []FieldSpec{integer("min"), integer("max")},
		},
		{
			Kind:      StructCommentInfo,
			Fields:    []FieldSpec{boolean("can_comment"), integer("comment_count")},
			Fallbacks: map[string]string{"count": "comment_count"},
		},
		{
			Kind:      StructLikeInfo,
			Fields:    []FieldSpec{boolean("can_like"), integer("like_count"), boolean("user_likes")},
			Fallbacks: map[string]string{"count": "like_count"},
		},
	}
}

// Entities returns the mirrored entity schemas in sync order. Each call
// builds fresh values.
func Entities() []*Schema {
	return []*Schema{
		userSchema(),
		friendSchema(),
		likeSchema(),
		albumSchema(),
		photoSchema(),
		linkSchema(),
		notificationSchema(),
		streamSchema(),
	}
}

// Users are upserted and never deleted: every other entity points at them.
func userSchema() *Schema {
	return &Schema{
		Name:              EntityUser,
		PrimaryIdentifier: "uid",
		OwnerIdentifier:   SessionOnly,
		IsStream:          true,
		RowLimit:          5000,
		Fields: []FieldSpec{
			text("about_me"),
			text("activities"),
			text("affiliations"),
			relation("age_range", StructAgeRange),
			text("allowed_restrictions"),
			datetime("birthday"),
			text("books"),
			boolean("can_message"),
			text("devices"),
			text("education"),
			text("email"),
			text("first_name"),
			integer("friend_count"),
			text("interests"),
			integer("likes_count"),
			text("movies"),
			integer("mutual_friend_count"),
			text("quotes"),
			text("relationship_status"),
			text("religion"),
			text("sex"),
			integer("subscriber_count"),
			required(integer("uid")),
			text("username"),
			integer("wall_count"),
			text("website"),
			text("work"),
		},
	}
}

func friendSchema() *Schema {
	return &Schema{
		Name:              EntityFriend,
		PrimaryIdentifier: "uid2",
		OwnerIdentifier:   "uid1",
		Fields: []FieldSpec{
			required(relation("uid1", EntityUser)),
			required(integer("uid2")),
		},
	}
}

func likeSchema() *Schema {
	return &Schema{
		Name:              EntityLike,
		PrimaryIdentifier: "object_id",
		OwnerIdentifier:   "user_id",
		Fields: []FieldSpec{
			required(integer("object_id")),
			text("object_type"),
			integer("post_id"),
			required(relation("user_id", EntityUser)),
		},
	}
}

func albumSchema() *Schema {
	return &Schema{
		Name:              EntityAlbum,
		PrimaryIdentifier: "aid",
		OwnerIdentifier:   "owner",
		Fields: []FieldSpec{
			required(text("aid")),
			datetime("backdated_time"),
			boolean("can_backdate"),
			boolean("can_upload"),
			relation("comment_info", StructCommentInfo),
			required(integer("cover_object_id")),
			required(integer("cover_pid")),
			datetime("created"),
			text("description"),
			text("edit_link"),
			boolean("is_user_facing"),
			relation("like_info", StructLikeInfo),
			text("link"),
			text("location"),
			datetime("modified"),
			datetime("modified_major"),
			text("name"),
			required(integer("object_id")),
			required(relation("owner", EntityUser)),
			text("owner_cursor"),
			integer("photo_count"),
			integer("place_id"),
			text("type"),
			integer("video_count"),
			text("visible"),
		},
	}
}

func photoSchema() *Schema {
	return &Schema{
		Name:              EntityPhoto,
		PrimaryIdentifier: "pid",
		OwnerIdentifier:   "owner",
		Fields: []FieldSpec{
			relation("aid", EntityAlbum),
			text("aid_cursor"),
			required(integer("album_object_id")),
			text("album_object_id_cursor"),
			datetime("backdated_time"),
			text("backdated_time_granularity"),
			boolean("can_backdate"),
			boolean("can_delete"),
			boolean("can_tag"),
			text("caption"),
			text("caption_tags"),
			relation("comment_info", StructCommentInfo),
			datetime("created"),
			text("images"),
			relation("like_info", StructLikeInfo),
			text("link"),
			datetime("modified"),
			required(integer("object_id")),
			integer("offline_id"),
			required(relation("owner", EntityUser)),
			text("owner_cursor"),
			integer("page_story_id"),
			required(integer("pid")),
			integer("place_id"),
			integer("position"),
			text("src"),
			text("src_big"),
			integer("src_big_height"),
			integer("src_big_width"),
			integer("src_height"),
			text("src_small"),
			integer("src_small_height"),
			integer("src_small_width"),
			integer("src_width"),
			integer("target_id"),
			text("target_type"),
		},
	}
}

func linkSchema() *Schema {
	return &Schema{
		Name:              EntityLink,
		PrimaryIdentifier: "link_id",
		OwnerIdentifier:   "owner",
		Fields: []FieldSpec{
			datetime("backdated_time"),
			boolean("can_backdate"),
			text("caption"),
			relation("comment_info", StructCommentInfo),
			datetime("created_time"),
			text("image_urls"),
			relation("like_info", StructLikeInfo),
			required(integer("link_id")),
			required(relation("owner", EntityUser)),
			text("owner_comment"),
			text("owner_cursor"),
			text("picture"),
			text("summary"),
			text("title"),
			text("url"),
			integer("via_id"),
		},
	}
}

// Notifications are only ever requested for the viewer, so they are scoped
// by session rather than by recipient.
func notificationSchema() *Schema {
	return &Schema{
		Name:              EntityNotification,
		PrimaryIdentifier: "notification_id",
		OwnerIdentifier:   SessionOnly,
		IsStream:          true,
		RowLimit:          500,
		Fields: []FieldSpec{
			integer("app_id"),
			text("body_html"),
			text("body_text"),
			datetime("created_time"),
			text("href"),
			text("icon_url"),
			integer("is_hidden"),
			integer("is_unread"),
			required(integer("notification_id")),
			text("object_id"),
			text("object_type"),
			required(relation("recipient_id", EntityUser)),
			integer("sender_id"),
			text("title_html"),
			text("title_text"),
			datetime("updated_time"),
		},
	}
}

func streamSchema() *Schema {
	return &Schema{
		Name:              EntityStream,
		PrimaryIdentifier: "post_id",
		OwnerIdentifier:   SessionOnly,
		IsStream:          true,
		RowLimit:          50,
		Fields: []FieldSpec{
			text("action_links"),
			integer("actor_id"),
			text("attribution"),
			datetime("created_time"),
			text("description"),
			text("description_tags"),
			datetime("expiration_timestamp"),
			text("filter_key"),
			integer("impressions"),
			boolean("is_hidden"),
			boolean("is_published"),
			text("message"),
			text("message_tags"),
			text("parent_post_id"),
			text("permalink"),
			integer("place"),
			required(text("post_id")),
			integer("share_count"),
			integer("source_id"),
			boolean("subscribed"),
			text("tagged_ids"),
			integer("target_id"),
			text("timeline_visibility"),
			integer("type"),
			datetime("updated_time"),
			integer("via_id"),
			integer("viewer_id"),
			boolean("with_location"),
			text("with_tags"),
			integer("xid"),
		},
	}
}
