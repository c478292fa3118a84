// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go --parseDependency
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
        "/plans": {
            "get": {"tags": ["Plans"], "summary": "List plans", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/plans/{planID}": {
            "get": {"tags": ["Plans"], "summary": "Get plan", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "planID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Plan not found"}}}
        },
        "/demands": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "List demands",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "property_type", "in": "query"},
                    {"type": "string", "name": "neighborhood", "in": "query"},
                    {"type": "number", "name": "price_min", "in": "query"},
                    {"type": "number", "name": "price_max", "in": "query"},
                    {"type": "integer", "name": "skip", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "Create demand",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateDemandRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}, "403": {"description": "Not a broker or agency"}}}
        },
        "/demands/mine": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "List my demands", "responses": {"200": {"description": "OK"}}}
        },
        "/demands/stats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "My board stats", "responses": {"200": {"description": "OK"}}}
        },
        "/demands/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "Get demand",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Demand not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "Update demand",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the creator"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "Delete demand",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the creator"}}}
        },
        "/demands/{id}/proposals": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "List proposals",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "Create proposal",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already proposed"}}}
        },
        "/proposals/{id}/accept": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "Accept proposal",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/proposals/{id}/reject": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Opportunities"], "summary": "Reject proposal",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/notifications": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "List notifications",
                "parameters": [{"type": "boolean", "name": "unread_only", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/unread-count": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Count unread notifications", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/read-all": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Mark every notification read", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/{id}/read": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Mark notification read",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Notification not found"}}}
        },
        "/notifications/{id}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Delete notification",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the recipient"}}}
        },
        "/payments": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "Create payment",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreatePaymentRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "A payment is already in progress"}}}
        },
        "/payments/pix-info": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "PIX receiver", "responses": {"200": {"description": "OK"}}}
        },
        "/payments/plans/limits": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Plans"], "summary": "Check listing limits", "responses": {"200": {"description": "OK"}}}
        },
        "/payments/mine": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "List my payments",
                "parameters": [{"type": "string", "name": "status", "in": "query"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/payments/current-plan": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "Current plan", "responses": {"200": {"description": "OK"}}}
        },
        "/payments/{id}/receipt": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "Upload receipt", "consumes": ["multipart/form-data"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "file", "name": "receipt", "in": "formData", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid file or payment state"}}}
        },
        "/payments/{id}/cancel": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "Cancel payment",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/admin/payments": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "List payments",
                "parameters": [{"type": "string", "name": "status", "in": "query"}, {"type": "string", "name": "user_id", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin only"}}}
        },
        "/admin/payments/pending-count": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Pending approval count", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/payments/stats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Payment stats", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/payments/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Get payment",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/admin/payments/{id}/review": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Review payment",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ReviewPaymentRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Payment is not awaiting approval"}}}
        },
        "/admin/notifications/broadcast": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Broadcast a system notification",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.BroadcastRequest"}}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/admin/notifications/stats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Broadcast reach", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/opportunities": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Opportunity board report", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/scheduler/run": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Run plan expiration sweep", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "dto.CreateDemandRequest": {
            "type": "object",
            "required": ["property_type", "neighborhoods"],
            "properties": {
                "property_type": {"type": "string"},
                "state": {"type": "string"},
                "city": {"type": "string"},
                "neighborhoods": {"type": "array", "items": {"type": "string"}},
                "price_min": {"type": "number"},
                "price_max": {"type": "number"},
                "min_bedrooms": {"type": "integer"},
                "min_garage": {"type": "integer"},
                "min_area": {"type": "number"},
                "must_have": {"type": "string"},
                "commission": {"type": "number"}
            }
        },
        "dto.CreatePaymentRequest": {
            "type": "object",
            "required": ["plan_id"],
            "properties": {"plan_id": {"type": "string"}}
        },
        "dto.ReviewPaymentRequest": {
            "type": "object",
            "required": ["approved"],
            "properties": {"approved": {"type": "boolean"}, "admin_notes": {"type": "string"}}
        },
        "dto.BroadcastRequest": {
            "type": "object",
            "required": ["title", "message", "target_user_types"],
            "properties": {
                "title": {"type": "string"},
                "message": {"type": "string"},
                "target_user_types": {"type": "array", "items": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ImovLocal API",
	Description:      "Opportunity board, notifications and PIX plan payments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
