// Package docs registers the OpenAPI description served at /swagger/*.
// Regenerate with: swag init -g cmd/datafill-api/main.go
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
        "/auth/google": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with Google",
                "parameters": [
                    {"description": "Google ID token", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.signInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.signInResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.validationErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/auth/google/url": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Google consent URL",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authURLResponse"}}
                }
            }
        },
        "/auth/verify": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Verify session token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.verifyResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/datasets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "List datasets",
                "parameters": [
                    {"type": "string", "description": "Case-insensitive substring of name or description", "name": "search", "in": "query"},
                    {"type": "string", "description": "Exact category", "name": "category", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 10, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.listDatasetsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Create a dataset",
                "parameters": [
                    {"description": "Dataset", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createDatasetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.datasetResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.validationErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/datasets/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "List categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.categoriesResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/datasets/public": {
            "get": {
                "description": "Every dataset keyed by its lowercase name. No authentication.",
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Public dataset map",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.publicDataset"}}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/datasets/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Name matches rank above description matches.",
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Search datasets",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "q", "in": "query", "required": true},
                    {"type": "string", "description": "Exact category", "name": "category", "in": "query"},
                    {"type": "integer", "description": "Maximum results (default 20, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.searchDatasetsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.validationErrorResponse"}}
                }
            }
        },
        "/datasets/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Get a dataset",
                "parameters": [{"type": "string", "description": "Dataset id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.datasetResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["datasets"],
                "summary": "Delete a dataset",
                "parameters": [{"type": "string", "description": "Dataset id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Update a dataset",
                "parameters": [
                    {"type": "string", "description": "Dataset id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateDatasetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.datasetResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.validationErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "api.validationErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/domain.FieldViolation"}}
            }
        },
        "domain.FieldViolation": {
            "type": "object",
            "properties": {"field": {"type": "string"}, "message": {"type": "string"}}
        },
        "handler.authURLResponse": {
            "type": "object",
            "properties": {"url": {"type": "string"}}
        },
        "handler.categoriesResponse": {
            "type": "object",
            "properties": {
                "categories": {"type": "array", "items": {"type": "string"}},
                "total": {"type": "integer"}
            }
        },
        "handler.createDatasetRequest": {
            "type": "object",
            "required": ["name", "data"],
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "description": {"type": "string", "maxLength": 500},
                "category": {"type": "string", "maxLength": 100},
                "data": {"type": "array", "minItems": 1, "items": {"type": "string"}}
            }
        },
        "handler.datasetResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "data": {"type": "array", "items": {"type": "string"}},
                "itemCount": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "createdBy": {"type": "string"}
            }
        },
        "handler.listDatasetsResponse": {
            "type": "object",
            "properties": {
                "datasets": {"type": "array", "items": {"$ref": "#/definitions/handler.datasetResponse"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        },
        "handler.publicDataset": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "data": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.searchDatasetsResponse": {
            "type": "object",
            "properties": {
                "datasets": {"type": "array", "items": {"$ref": "#/definitions/handler.datasetResponse"}},
                "total": {"type": "integer"},
                "query": {"type": "string"}
            }
        },
        "handler.sessionUser": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "picture": {"type": "string"}
            }
        },
        "handler.signInRequest": {
            "type": "object",
            "required": ["credential"],
            "properties": {"credential": {"type": "string"}}
        },
        "handler.signInResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/handler.sessionUser"}
            }
        },
        "handler.updateDatasetRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "description": {"type": "string", "maxLength": 500},
                "category": {"type": "string", "maxLength": 100},
                "data": {"type": "array", "minItems": 1, "items": {"type": "string"}}
            }
        },
        "handler.verifyResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/handler.sessionUser"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "datafill API",
	Description:      "Dataset management for the design-tool data-fill plugin.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
