// Package docs registers the OpenAPI document of the local storefront API
// with swag, for the swagger UI at /swagger/index.html.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/session": {
            "get": {"tags": ["session"], "summary": "Current session", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.sessionResp"}}}}
        },
        "/session/login": {
            "post": {"tags": ["session"], "summary": "Log in", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/httpapi.loginReq"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/session/register": {
            "post": {"tags": ["session"], "summary": "Register and log in", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/httpapi.registerReq"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/session/logout": {
            "post": {"tags": ["session"], "summary": "Log out",
                "responses": {"204": {"description": "No Content"},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/session/profile": {
            "get": {"tags": ["session"], "summary": "Own profile", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}},
            "put": {"tags": ["session"], "summary": "Update own profile", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/apiclient.ProfileUpdate"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/products": {
            "get": {"tags": ["products"], "summary": "List products", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Name contains", "name": "q", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}}}},
            "post": {"tags": ["products"], "summary": "Create product", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/apiclient.ProductInput"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/products/{id}": {
            "get": {"tags": ["products"], "summary": "Get product by id", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}},
            "put": {"tags": ["products"], "summary": "Update product", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/apiclient.ProductInput"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}},
            "delete": {"tags": ["products"], "summary": "Delete product",
                "parameters": [{"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/cart": {
            "get": {"tags": ["cart"], "summary": "Get cart", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Cart"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}},
            "delete": {"tags": ["cart"], "summary": "Clear cart", "description": "Requires confirmed=true; without it nothing is sent.", "produces": ["application/json"],
                "parameters": [{"type": "boolean", "description": "User confirmed", "name": "confirmed", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Cart"}},
                    "428": {"description": "Precondition Required", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/cart/items": {
            "post": {"tags": ["cart"], "summary": "Add item to cart", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/httpapi.addItemReq"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Cart"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/cart/items/{id}": {
            "put": {"tags": ["cart"], "summary": "Set item quantity", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/httpapi.updateItemReq"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Cart"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}},
            "delete": {"tags": ["cart"], "summary": "Remove item from cart", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Cart"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/checkout": {
            "get": {"tags": ["checkout"], "summary": "Checkout state", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}},
            "post": {"tags": ["checkout"], "summary": "Place order from the cart", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "input", "schema": {"$ref": "#/definitions/httpapi.checkoutReq"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/httpapi.checkoutResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/pending": {
            "get": {"tags": ["cart"], "summary": "Keys with a write in flight", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}}}}
        },
        "/notifications": {
            "get": {"tags": ["session"], "summary": "Drain notifications", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/service.Note"}}}}}
        },
        "/admin/orders": {
            "get": {"tags": ["admin"], "summary": "List orders", "produces": ["application/json"],
                "parameters": [{"type": "integer", "default": 1, "description": "Page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Page size", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.OrderPage"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/admin/orders/{id}": {
            "get": {"tags": ["admin"], "summary": "Get order with customer", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.orderResp"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/admin/orders/{id}/cancel": {
            "post": {"tags": ["admin"], "summary": "Cancel order", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        },
        "/admin/profiles/{id}": {
            "get": {"tags": ["admin"], "summary": "Get customer profile", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpapi.errorBody"}}}}
        }
    },
    "definitions": {
        "apiclient.ProductInput": {"type": "object", "properties": {
            "name": {"type": "string"}, "description": {"type": "string"}, "price": {"type": "string"},
            "images": {"type": "array", "items": {"$ref": "#/definitions/domain.Image"}}}},
        "apiclient.ProfileUpdate": {"type": "object", "properties": {
            "name": {"type": "string"}, "phone": {"type": "string"}, "address": {"$ref": "#/definitions/domain.Address"}}},
        "domain.Address": {"type": "object", "properties": {
            "line1": {"type": "string"}, "line2": {"type": "string"}, "city": {"type": "string"}, "state": {"type": "string"},
            "postalCode": {"type": "string"}, "country": {"type": "string"}, "text": {"type": "string"}}},
        "domain.Image": {"type": "object", "properties": {"url": {"type": "string"}}},
        "domain.User": {"type": "object", "properties": {
            "id": {"type": "string"}, "name": {"type": "string"}, "email": {"type": "string"}, "phone": {"type": "string"},
            "address": {"$ref": "#/definitions/domain.Address"}, "role": {"type": "string", "enum": ["guest", "customer", "admin"]}}},
        "domain.Product": {"type": "object", "properties": {
            "id": {"type": "string"}, "name": {"type": "string"}, "description": {"type": "string"}, "price": {"type": "string"},
            "images": {"type": "array", "items": {"$ref": "#/definitions/domain.Image"}}}},
        "domain.CartItem": {"type": "object", "properties": {
            "productId": {"type": "string"}, "product": {"$ref": "#/definitions/domain.Product"}, "qty": {"type": "integer"},
            "lineTotal": {"type": "string"}}},
        "domain.Cart": {"type": "object", "properties": {
            "items": {"type": "array", "items": {"$ref": "#/definitions/domain.CartItem"}},
            "subtotal": {"type": "string"}, "deliveryCharge": {"type": "string"}, "discountPercent": {"type": "string"},
            "discountAmount": {"type": "string"}, "totalPayable": {"type": "string"}}},
        "domain.OrderCustomer": {"type": "object", "properties": {
            "name": {"type": "string"}, "email": {"type": "string"}, "phone": {"type": "string"}}},
        "domain.Order": {"type": "object", "properties": {
            "id": {"type": "string"}, "status": {"type": "string"}, "paymentMethod": {"type": "string"},
            "subtotal": {"type": "string"}, "deliveryCharge": {"type": "string"}, "discountAmount": {"type": "string"},
            "totalPayable": {"type": "string"}, "items": {"type": "array", "items": {"$ref": "#/definitions/domain.CartItem"}},
            "user": {"type": "string"}, "customer": {"$ref": "#/definitions/domain.OrderCustomer"}, "createdAt": {"type": "string"}}},
        "domain.OrderPage": {"type": "object", "properties": {
            "orders": {"type": "array", "items": {"$ref": "#/definitions/domain.Order"}}, "totalPages": {"type": "integer"}}},
        "httpapi.errorBody": {"type": "object", "properties": {"error": {"type": "string"}, "kind": {"type": "string"}}},
        "httpapi.sessionResp": {"type": "object", "properties": {
            "active": {"type": "boolean"}, "user": {"$ref": "#/definitions/domain.User"}, "role": {"type": "string"}}},
        "httpapi.loginReq": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "httpapi.registerReq": {"type": "object", "properties": {
            "name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}},
        "httpapi.addItemReq": {"type": "object", "properties": {"productId": {"type": "string"}, "qty": {"type": "integer"}}},
        "httpapi.updateItemReq": {"type": "object", "properties": {"qty": {"type": "integer"}}},
        "httpapi.checkoutReq": {"type": "object", "properties": {"paymentMethod": {"type": "string"}}},
        "httpapi.checkoutResp": {"type": "object", "properties": {
            "orderId": {"type": "string"}, "order": {"$ref": "#/definitions/domain.Order"},
            "cart": {"$ref": "#/definitions/domain.Cart"}, "clearError": {"type": "string"}}},
        "service.CustomerView": {"type": "object", "properties": {
            "userId": {"type": "string"}, "profile": {"$ref": "#/definitions/domain.User"}, "unavailable": {"type": "boolean"},
            "reason": {"type": "string"}, "fallback": {"$ref": "#/definitions/domain.OrderCustomer"}}},
        "httpapi.orderResp": {"type": "object", "properties": {
            "order": {"$ref": "#/definitions/domain.Order"}, "customer": {"$ref": "#/definitions/service.CustomerView"},
            "customerName": {"type": "string"}}},
        "service.Note": {"type": "object", "properties": {"Level": {"type": "string"}, "Text": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Local cart, checkout and admin order surface over the remote storefront service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
