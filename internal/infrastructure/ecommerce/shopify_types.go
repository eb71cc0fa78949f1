package ecommerce

import (
	"encoding/json"

	"github.com/storebridge/backend/internal/domain/integration"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions"`
}

type shopifyUserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type shopifyVariant struct {
	ID    string `json:"id"`
	Price string `json:"price"`
	SKU   string `json:"sku"`
}

type shopifyProduct struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Handle   string `json:"handle"`
	Status   string `json:"status"`
	Variants struct {
		Nodes []shopifyVariant `json:"nodes"`
	} `json:"variants"`
}

type productCreateData struct {
	ProductCreate struct {
		Product    *shopifyProduct    `json:"product"`
		UserErrors []shopifyUserError `json:"userErrors"`
	} `json:"productCreate"`
}

type variantsBulkPayload struct {
	ProductVariants []shopifyVariant   `json:"productVariants"`
	UserErrors      []shopifyUserError `json:"userErrors"`
}

type variantsBulkCreateData struct {
	ProductVariantsBulkCreate variantsBulkPayload `json:"productVariantsBulkCreate"`
}

type variantsBulkUpdateData struct {
	ProductVariantsBulkUpdate variantsBulkPayload `json:"productVariantsBulkUpdate"`
}

type publishablePublishData struct {
	PublishablePublish struct {
		UserErrors []shopifyUserError `json:"userErrors"`
	} `json:"publishablePublish"`
}

type productDeleteData struct {
	ProductDelete struct {
		DeletedProductID *string            `json:"deletedProductId"`
		UserErrors       []shopifyUserError `json:"userErrors"`
	} `json:"productDelete"`
}

type publicationsData struct {
	Publications struct {
		Edges []struct {
			Node struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"publications"`
}

type shopData struct {
	Shop struct {
		Name            string `json:"name"`
		MyshopifyDomain string `json:"myshopifyDomain"`
		PrimaryDomain   struct {
			URL string `json:"url"`
		} `json:"primaryDomain"`
	} `json:"shop"`
}

func toUserErrors(in []shopifyUserError) []integration.UserError {
	out := make([]integration.UserError, 0, len(in))
	for _, ue := range in {
		out = append(out, integration.UserError{Field: ue.Field, Message: ue.Message})
	}
	return out
}

func toCreatedVariants(in []shopifyVariant) []integration.CreatedVariant {
	out := make([]integration.CreatedVariant, 0, len(in))
	for _, v := range in {
		out = append(out, integration.CreatedVariant{ID: v.ID, Price: v.Price, SKU: v.SKU})
	}
	return out
}

func draftToProductInput(draft *integration.CatalogProductDraft) map[string]any {
	return map[string]any{
		"title":           draft.Title,
		"descriptionHtml": draft.DescriptionHTML,
		"productType":     draft.ProductType,
		"vendor":          draft.Vendor,
		"status":          draft.Status.String(),
	}
}

func draftToMediaInput(draft *integration.CatalogProductDraft) []map[string]any {
	media := make([]map[string]any, 0, len(draft.Media))
	for _, m := range draft.Media {
		media = append(media, map[string]any{
			"mediaContentType": string(m.MediaContentType),
			"originalSource":   m.OriginalSource,
		})
	}
	return media
}

func variantsToInput(variants []integration.VariantInput) []map[string]any {
	out := make([]map[string]any, 0, len(variants))
	for _, v := range variants {
		item := map[string]any{"price": v.Price}
		if v.ID != "" {
			item["id"] = v.ID
		}
		if v.SKU != "" {
			item["inventoryItem"] = map[string]any{"sku": v.SKU}
		}
		out = append(out, item)
	}
	return out
}
