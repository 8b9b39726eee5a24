package room_service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-rooms/internal/entity"
	"github.com/xenn00/chat-rooms/internal/utils"
)

func TestCheckPassword(t *testing.T) {
	hash, err := utils.GenerateHash("s3cret")
	require.NoError(t, err)

	open := &entity.Room{ID: "r1"}
	protected := &entity.Room{ID: "r2", HasPassword: true, Password: hash}
	unloaded := &entity.Room{ID: "r3", HasPassword: true}
	corrupt := &entity.Room{ID: "r4", HasPassword: true, Password: "plain-text"}
	emptyKey := &entity.Room{ID: "r5", HasPassword: true, Password: "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$"}

	assert.True(t, CheckPassword(open, ""))
	assert.True(t, CheckPassword(open, "whatever"))
	assert.True(t, CheckPassword(protected, "s3cret"))
	assert.False(t, CheckPassword(protected, "s3cret "))
	assert.False(t, CheckPassword(protected, ""))
	assert.False(t, CheckPassword(unloaded, "s3cret"))
	assert.False(t, CheckPassword(corrupt, "plain-text"))
	assert.False(t, CheckPassword(emptyKey, "anything"))
	assert.False(t, CheckPassword(emptyKey, ""))
}

func TestListCacheKey(t *testing.T) {
	q := normalizeListQuery(2, 0, "", "", "team")
	assert.Equal(t, "rooms:page:2:size:10:sort:createdAt:desc:search:team", listCacheKey(q))
	assert.Equal(t, "room:abc", roomCacheKey("abc"))
	assert.Equal(t, 1, normalizeListQuery(0, -4, "", "", "").pageSize)
}
