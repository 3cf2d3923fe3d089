package models

// StoreSummary is the nested form of a store inside item and tag views.
type StoreSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ItemSummary is the nested form of an item inside a store view.
type ItemSummary struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// TagSummary is the nested form of a tag inside item and store views.
type TagSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is an item with its owning store and linked tags.
type Item struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Price   float64      `json:"price"`
	StoreID int64        `json:"-"`
	Store   StoreSummary `json:"store"`
	Tags    []TagSummary `json:"tags"`
}

// Store is a store with the items and tags it owns.
type Store struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Items []ItemSummary `json:"items"`
	Tags  []TagSummary  `json:"tags"`
}

// Tag is a tag with its owning store.
type Tag struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	StoreID int64        `json:"-"`
	Store   StoreSummary `json:"store"`
}

// TagAndItem is the payload of the link endpoints.
type TagAndItem struct {
	Message string `json:"message"`
	Item    *Item  `json:"item"`
	Tag     *Tag   `json:"tag"`
}

// CreateItemRequest is the JSON body for POST /item.
type CreateItemRequest struct {
	Name    string   `json:"name" validate:"required,max=80"`
	Price   *float64 `json:"price" validate:"required,gte=0"`
	StoreID int64    `json:"store_id" validate:"required,gt=0"`
}

// UpdateItemRequest is the JSON body for PUT /item/{name}. Absent fields
// are left unchanged.
type UpdateItemRequest struct {
	Name  *string  `json:"name" validate:"omitempty,min=1,max=80"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

// CreateStoreRequest is the JSON body for POST /store.
type CreateStoreRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// CreateTagRequest is the JSON body for POST /tag.
type CreateTagRequest struct {
	Name    string `json:"name" validate:"required,max=80"`
	StoreID int64  `json:"store_id" validate:"required,gt=0"`
}
