package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Talent Pool API",
        "description": "Candidate pool allocation and company access control",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Pools", "description": "Pool lifecycle"},
        {"name": "Assignments", "description": "Candidate membership and capacity"},
        {"name": "Grants", "description": "Company access to pools"},
        {"name": "Selections", "description": "Company dispositions toward candidates"},
        {"name": "Stats", "description": "Derived pool statistics"}
    ],
    "paths": {
        "/pools": {
            "get": {
                "tags": ["Pools"],
                "summary": "List pools",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["active", "inactive", "archived"]},
                    {"name": "type", "in": "query", "type": "string", "enum": ["main", "custom", "featured", "premium"]},
                    {"name": "visibility", "in": "query", "type": "string", "enum": ["public", "private", "restricted"]},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Pools"],
                "summary": "Create a pool",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePoolRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pools/{id}": {
            "get": {
                "tags": ["Pools"],
                "summary": "Get a pool",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "patch": {
                "tags": ["Pools"],
                "summary": "Update a pool",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Ceiling below current count"}}
            },
            "delete": {
                "tags": ["Pools"],
                "summary": "Delete a pool",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "403": {"description": "Main pool is protected, or caller is not an admin"}}
            }
        },
        "/pools/{id}/archive": {
            "post": {
                "tags": ["Pools"],
                "summary": "Archive a pool",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pools/{id}/candidates": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List pool candidates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "featured", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "View access required"}}
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Add candidates to a pool",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddCandidatesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Added"},
                    "409": {"description": "Capacity exceeded, duplicate assignment or archived pool"}
                }
            }
        },
        "/assignments/{id}": {
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove a candidate from a pool",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Removed"}}
            }
        },
        "/assignments/{id}/featured": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Toggle the featured flag",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/assignments/{id}/priority": {
            "patch": {
                "tags": ["Assignments"],
                "summary": "Update assignment priority",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"priority": {"type": "integer"}}}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pools/{id}/grants": {
            "get": {
                "tags": ["Grants"],
                "summary": "List grants on a pool",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Grants"],
                "summary": "Grant or replace company access",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GrantAccessRequest"}}
                ],
                "responses": {"201": {"description": "Granted"}, "404": {"description": "Pool not found"}}
            }
        },
        "/grants/{id}": {
            "patch": {
                "tags": ["Grants"],
                "summary": "Update a grant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Grants"],
                "summary": "Revoke a grant",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Revoked"}}
            }
        },
        "/companies/{companyId}/grants": {
            "get": {
                "tags": ["Grants"],
                "summary": "List a company's active grants",
                "parameters": [{"name": "companyId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pools/{id}/selections": {
            "post": {
                "tags": ["Selections"],
                "summary": "Record a selection",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordSelectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Recorded"},
                    "403": {"description": "Permission denied"},
                    "409": {"description": "Candidate not assigned"}
                }
            }
        },
        "/pools/{id}/companies/{companyId}/selections": {
            "get": {
                "tags": ["Selections"],
                "summary": "List a company's selections in a pool",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "companyId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pools/{id}/stats": {
            "get": {
                "tags": ["Stats"],
                "summary": "Pool statistics",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pools/{id}/companies/{companyId}/stats": {
            "get": {
                "tags": ["Stats"],
                "summary": "Pool statistics for one company",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "companyId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "CreatePoolRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "pool_type": {"type": "string", "enum": ["main", "custom", "featured", "premium"]},
                "status": {"type": "string", "enum": ["active", "inactive", "archived"]},
                "max_candidates": {"type": "integer", "minimum": 0},
                "visibility": {"type": "string", "enum": ["public", "private", "restricted"]},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AddCandidatesRequest": {
            "type": "object",
            "required": ["candidate_ids"],
            "properties": {
                "candidate_ids": {"type": "array", "items": {"type": "string"}},
                "priority": {"type": "integer"},
                "featured": {"type": "boolean"},
                "notes": {"type": "string"}
            }
        },
        "GrantAccessRequest": {
            "type": "object",
            "required": ["company_id", "access_level"],
            "properties": {
                "company_id": {"type": "string"},
                "access_level": {"type": "string", "enum": ["view", "select", "contact"]},
                "expires_at": {"type": "string", "format": "date-time"},
                "notes": {"type": "string"}
            }
        },
        "RecordSelectionRequest": {
            "type": "object",
            "required": ["candidate_id", "selection_type"],
            "properties": {
                "candidate_id": {"type": "string"},
                "company_id": {"type": "string"},
                "selection_type": {"type": "string", "enum": ["interested", "shortlisted", "contacted", "rejected"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
