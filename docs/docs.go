// Package docs holds the OpenAPI description served under /swagger/.
// Regenerate with `swag init -g cmd/mobilize-warehouse/main.go`.
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
        "/auth/token": {
            "post": {
                "description": "Exchange the operator password for a JWT used on the ingest endpoints.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Issue an operator token",
                "parameters": [
                    {
                        "description": "Operator password",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/controllers.TokenRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "data contains token and token_type", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/ingest/runs": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Fetch every attendance from Mobilize, normalize it into events, timeslots, persons and attendances, and write all configured sinks. Blocks until the run finishes. Sink failures are reported in sink_errors with status 502; the other sinks are still written.",
                "produces": ["application/json"],
                "tags": ["ingest"],
                "summary": "Run an ingest",
                "responses": {
                    "200": {"description": "data contains the RunSummary", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "422": {"description": "error.code: bad_request (malformed or empty batch)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "502": {"description": "data contains the RunSummary with sink_errors or error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/ingest/runs/latest": {
            "get": {
                "description": "Summary of the most recent ingest run since the service started.",
                "produces": ["application/json"],
                "tags": ["ingest"],
                "summary": "Latest ingest run",
                "responses": {
                    "200": {"description": "data contains the RunSummary", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "controllers.TokenRequest": {
            "type": "object",
            "properties": {"password": {"type": "string"}}
        },
        "helpers.APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {"data": {}, "error": {"$ref": "#/definitions/helpers.APIError"}}
        },
        "domain.DegradedCounts": {
            "type": "object",
            "properties": {"events": {"type": "integer"}, "timeslots": {"type": "integer"}, "persons": {"type": "integer"}}
        },
        "domain.RunSummary": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "raw_records": {"type": "integer"},
                "tables": {"type": "object", "additionalProperties": {"type": "integer"}},
                "degraded": {"$ref": "#/definitions/domain.DegradedCounts"},
                "archive_location": {"type": "string"},
                "sink_errors": {"type": "object", "additionalProperties": {"type": "string"}},
                "error": {"type": "string"}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Mobilize Warehouse API",
	Description:      "Admin API for the Mobilize attendance ingest pipeline.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
