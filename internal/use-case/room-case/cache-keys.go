package room_service

import "fmt"

const (
	DefaultCacheTTLSeconds = 300

	defaultPageSize = 10
	maxPageSize     = 50

	sortCreatedAt = "createdAt"
	sortName      = "name"
	orderAsc      = "asc"
	orderDesc     = "desc"
)

// sortable fields exposed to clients, mapped to stored field names
var sortFields = map[string]string{
	sortCreatedAt: "createdAt",
	sortName:      "name",
}

type listQuery struct {
	page      int
	pageSize  int
	sortField string
	sortOrder string
	search    string
}

func normalizeListQuery(page, pageSize int, sortField, sortOrder, search string) listQuery {
	q := listQuery{
		page:      max(page, 0),
		pageSize:  pageSize,
		sortField: sortField,
		sortOrder: sortOrder,
		search:    search,
	}

	if q.pageSize == 0 {
		q.pageSize = defaultPageSize
	}
	q.pageSize = min(max(q.pageSize, 1), maxPageSize)

	if _, ok := sortFields[q.sortField]; !ok {
		q.sortField = sortCreatedAt
	}
	if q.sortOrder != orderAsc {
		q.sortOrder = orderDesc
	}
	return q
}

func listCacheKey(q listQuery) string {
	return fmt.Sprintf("rooms:page:%d:size:%d:sort:%s:%s:search:%s", q.page, q.pageSize, q.sortField, q.sortOrder, q.search)
}

func roomCacheKey(roomID string) string {
	return "room:" + roomID
}
