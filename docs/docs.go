// Package docs registers the swagger spec served at /swagger/*any.
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
        "/editions": {
            "get": {
                "description": "Editions newest first, fixed page size",
                "produces": ["application/json"],
                "tags": ["editions"],
                "summary": "Edition archive",
                "parameters": [
                    {"type": "integer", "description": "Page number (1-based)", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PaginationEditionDTO"}}
                }
            }
        },
        "/editions/latest": {
            "get": {
                "description": "Newest edition grouped by section, with facets and optional filters",
                "produces": ["application/json"],
                "tags": ["editions"],
                "summary": "Latest edition",
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Sources (OR match)", "name": "source", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Tags (OR match)", "name": "tag", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.EditionDTO"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponseDTO"}}
                }
            }
        },
        "/editions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["editions"],
                "summary": "Get edition by id",
                "parameters": [
                    {"type": "string", "description": "ObjectID", "name": "id", "in": "path", "required": true},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Sources (OR match)", "name": "source", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Tags (OR match)", "name": "tag", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.EditionDTO"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponseDTO"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponseDTO"}}
                }
            }
        },
        "/pipeline/run": {
            "post": {
                "description": "Starts ingest, categorization and synthesis in the background",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Trigger a pipeline run",
                "parameters": [
                    {"type": "string", "description": "daily or weekly", "name": "cadence", "in": "query"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.PipelineRunResponseDTO"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponseDTO"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponseDTO"}}
                }
            }
        }
    },
    "definitions": {
        "dto.EditionDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "cadence": {"type": "string"},
                "body": {"type": "string"},
                "item_count": {"type": "integer"},
                "sent": {"type": "boolean"},
                "created_at": {"type": "string"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/dto.SectionDTO"}},
                "facets": {"$ref": "#/definitions/dto.FacetsDTO"},
                "filter": {"$ref": "#/definitions/dto.FilterDTO"}
            }
        },
        "dto.SectionDTO": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "title": {"type": "string"},
                "intro": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/dto.EditionItemDTO"}}
            }
        },
        "dto.EditionItemDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "display_order": {"type": "integer"},
                "headline": {"type": "string"},
                "blurb": {"type": "string"},
                "title": {"type": "string"},
                "url": {"type": "string"},
                "permalink": {"type": "string"},
                "source": {"type": "string"},
                "author": {"type": "string"},
                "score": {"type": "integer"},
                "num_comments": {"type": "integer"},
                "category": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "key_insight": {"type": "string"},
                "combined_score": {"type": "number"}
            }
        },
        "dto.FacetsDTO": {
            "type": "object",
            "properties": {
                "sources": {"type": "array", "items": {"type": "string"}},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.FilterDTO": {
            "type": "object",
            "properties": {
                "sources": {"type": "array", "items": {"type": "string"}},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.EditionSummaryDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "cadence": {"type": "string"},
                "item_count": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "dto.PaginationEditionDTO": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/dto.EditionSummaryDTO"}},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "dto.PipelineRunResponseDTO": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "started"},
                "request_id": {"type": "string"},
                "cadence": {"type": "string", "example": "daily"},
                "mode": {"type": "string", "example": "local"}
            }
        },
        "dto.ErrorResponseDTO": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "not found"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Forum-Letter API",
	Description:      "API for browsing synthesized forum newsletter editions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
