package resource

import (
	"net/url"
	"strconv"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/model"
)

// Users returns the user collection.
func Users(api *client.Client) *Service[model.User] {
	return New[model.User](api, Spec{Path: "/users", ItemKey: "user"})
}

// Products returns the product collection.
func Products(api *client.Client) *Service[model.Product] {
	return New[model.Product](api, Spec{Path: "/products", ItemKey: "product"})
}

// Transfers returns the transfer collection.
func Transfers(api *client.Client) *Service[model.Transfer] {
	return New[model.Transfer](api, Spec{Path: "/transfers", ListKey: "transfers", ItemKey: "transfer"})
}

// Articles returns the articles of one transfer.
func Articles(api *client.Client, transferID int64) *Service[model.Article] {
	return New[model.Article](api, Spec{
		Path:    "/articles",
		ItemKey: "article",
		Query:   url.Values{"transfer_id": {strconv.FormatInt(transferID, 10)}},
	})
}

// Supports returns the support ticket collection.
func Supports(api *client.Client) *Service[model.Support] {
	return New[model.Support](api, Spec{Path: "/supports", ListKey: "supports", ItemKey: "support"})
}
