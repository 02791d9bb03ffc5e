package bot

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	draftHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_bot_draft_hits_total",
		Help: "Количество найденных черновиков видео для /addlast.",
	})
	draftMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_bot_draft_misses_total",
		Help: "Количество /addlast без актуального черновика.",
	})
)

// VideoDraft — последнее видео, присланное администратором в чат.
type VideoDraft struct {
	FileID   string
	FileSize int64
	FileName string
	Caption  string
}

// DraftStore — черновики видео по chat id с автоматическим TTL.
// Хранит только последнее видео каждого чата.
type DraftStore struct {
	cache *expirable.LRU[int64, VideoDraft]
}

// NewDraftStore создаёт хранилище черновиков.
// maxSize — максимальное количество чатов, ttl — время жизни черновика.
func NewDraftStore(maxSize int, ttl time.Duration) *DraftStore {
	return &DraftStore{cache: expirable.NewLRU[int64, VideoDraft](maxSize, nil, ttl)}
}

// Get возвращает черновик чата.
func (d *DraftStore) Get(chatID int64) (VideoDraft, bool) {
	draft, ok := d.cache.Get(chatID)
	if ok {
		draftHitsTotal.Inc()
		return draft, true
	}
	draftMissesTotal.Inc()
	return VideoDraft{}, false
}

// Set сохраняет черновик, заменяя предыдущий.
func (d *DraftStore) Set(chatID int64, draft VideoDraft) {
	d.cache.Add(chatID, draft)
}

// Delete удаляет черновик (после создания записи).
func (d *DraftStore) Delete(chatID int64) {
	d.cache.Remove(chatID)
}

// Len возвращает количество черновиков.
func (d *DraftStore) Len() int {
	return d.cache.Len()
}
