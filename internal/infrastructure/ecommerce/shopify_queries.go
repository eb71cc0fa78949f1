package ecommerce

// GraphQL documents sent to the Admin API

const productCreateMutation = `
mutation populateProduct($product: ProductCreateInput!, $media: [CreateMediaInput!]) {
	productCreate(product: $product, media: $media) {
		product {
			id
			title
			handle
			status
			variants(first: 1) {
				nodes { id price sku }
			}
		}
		userErrors { field message }
	}
}`

const productVariantsBulkCreateMutation = `
mutation productVariantsBulkCreate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
	productVariantsBulkCreate(productId: $productId, variants: $variants) {
		productVariants { id price sku }
		userErrors { field message }
	}
}`

const productVariantsBulkUpdateMutation = `
mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
	productVariantsBulkUpdate(productId: $productId, variants: $variants) {
		productVariants { id price sku }
		userErrors { field message }
	}
}`

const publishablePublishMutation = `
mutation publishablePublish($id: ID!, $input: [PublicationInput!]!) {
	publishablePublish(id: $id, input: $input) {
		userErrors { field message }
	}
}`

const productDeleteMutation = `
mutation productDelete($input: ProductDeleteInput!) {
	productDelete(input: $input) {
		deletedProductId
		userErrors { field message }
	}
}`

const publicationsQuery = `
query publications($first: Int!) {
	publications(first: $first) {
		edges {
			node { id name }
		}
	}
}`

const shopInfoQuery = `
query ShopInfo {
	shop {
		name
		myshopifyDomain
		primaryDomain { url }
	}
}`

// Operation names reported in errors, logs and spans
const (
	opProductCreate             = "productCreate"
	opProductVariantsBulkCreate = "productVariantsBulkCreate"
	opProductVariantsBulkUpdate = "productVariantsBulkUpdate"
	opPublishablePublish        = "publishablePublish"
	opProductDelete             = "productDelete"
	opPublications              = "publications"
	opShop                      = "shop"
)
