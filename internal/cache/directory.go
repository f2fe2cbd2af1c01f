package cache

import "usersvc/internal/models"

// ListKey identifies a cached account listing by its exact arguments.
type ListKey struct {
	Name           string
	SortByBirthday bool
}

// DirectoryCache holds account records keyed by id and account listings
// keyed by ListKey.
//
// Point writes and deletes touch only the id-keyed records. Listings are
// refreshed only when their own key is repopulated, so a listing may still
// show an account that has since been changed or deleted.
type DirectoryCache struct {
	records  *Cache[string, models.Account]
	listings *Cache[ListKey, []models.Account]
}

// NewDirectoryCache creates an empty directory cache.
func NewDirectoryCache(rec Recorder) *DirectoryCache {
	return &DirectoryCache{
		records:  New[string, models.Account]("account_records", models.Account.Clone, rec),
		listings: New[ListKey, []models.Account]("account_listings", cloneAccounts, rec),
	}
}

// Record returns the cached account with the given id.
func (d *DirectoryCache) Record(id string) (models.Account, bool) {
	return d.records.Get(id)
}

// PutRecord caches acc under its id.
func (d *DirectoryCache) PutRecord(acc models.Account) {
	d.records.Put(acc.ID, acc)
}

// EvictRecord drops the record cached under id.
func (d *DirectoryCache) EvictRecord(id string) {
	d.records.Evict(id)
}

// Listing returns the cached listing for key.
func (d *DirectoryCache) Listing(key ListKey) ([]models.Account, bool) {
	return d.listings.Get(key)
}

// PutListing caches accounts under key.
func (d *DirectoryCache) PutListing(key ListKey, accounts []models.Account) {
	d.listings.Put(key, accounts)
}

func cloneAccounts(in []models.Account) []models.Account {
	if in == nil {
		return nil
	}
	out := make([]models.Account, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}
