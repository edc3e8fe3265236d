package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ClubCal API",
        "description": "Recurring schedule, attendance, and tuition billing API for sports clubs",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Schedules", "description": "Recurring schedule series and instances"},
        {"name": "Attendances", "description": "Per-student attendance responses"},
        {"name": "Categories", "description": "Ordered team categories"},
        {"name": "Team", "description": "Team fee configuration"},
        {"name": "Students", "description": "Team roster and category subscriptions"},
        {"name": "Tuition", "description": "Monthly tuition billing and statements"},
        {"name": "Documents", "description": "Category-scoped team documents"},
        {"name": "Activity", "description": "Audit trail of mutating operations"}
    ],
    "paths": {
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedule instances in a date range",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "to", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad request"}
                },
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create a schedule or recurring series",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad request"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a stored schedule row",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                },
                "security": [{"BearerAuth": []}]
            },
            "put": {
                "tags": ["Schedules"],
                "summary": "Update a schedule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                },
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a schedule, forward tail, or whole series",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "scope", "in": "query", "type": "string", "enum": ["single", "forward", "series"], "default": "single"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "400": {"description": "Invalid scope"},
                    "404": {"description": "Not found"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/schedules/{id}/attendances": {
            "get": {
                "tags": ["Attendances"],
                "summary": "Roster with per-status counts for a schedule",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/attendances": {
            "post": {
                "tags": ["Attendances"],
                "summary": "Set a student's attendance status for a schedule",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"},
                    "403": {"description": "Forbidden"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/attendances/{id}/transfer": {
            "post": {
                "tags": ["Attendances"],
                "summary": "Move an attendance row to a same-day schedule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransferRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"},
                    "409": {"description": "Invalid target"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/categories": {
            "get": {
                "tags": ["Categories"],
                "summary": "List categories in display order",
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Categories"],
                "summary": "Create a category at the end of the order",
                "responses": {"201": {"description": "Created"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/categories/reorder": {
            "put": {
                "tags": ["Categories"],
                "summary": "Replace the category display order",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Ordering is not a permutation"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/categories/reorder-batch": {
            "post": {
                "tags": ["Categories"],
                "summary": "Replace the category display order (batch alias)",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Ordering is not a permutation"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/categories/{id}": {
            "put": {
                "tags": ["Categories"],
                "summary": "Update a category",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            },
            "delete": {
                "tags": ["Categories"],
                "summary": "Delete a category and compact the order",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Deleted"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/team": {
            "get": {
                "tags": ["Team"],
                "summary": "Get the caller's team and fee configuration",
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/team/fees": {
            "put": {
                "tags": ["Team"],
                "summary": "Replace the team fee configuration",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad request"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List team students",
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/students/{id}/player-type": {
            "put": {
                "tags": ["Students"],
                "summary": "Change a student's player type",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/students/{id}/categories": {
            "put": {
                "tags": ["Students"],
                "summary": "Replace a student's category subscriptions",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/tuition-payments": {
            "get": {
                "tags": ["Tuition"],
                "summary": "List tuition payments for a billing month",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "month", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/tuition-payments/generate": {
            "post": {
                "tags": ["Tuition"],
                "summary": "Generate the billing run for a month",
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/tuition-payments/reset-unpaid": {
            "post": {
                "tags": ["Tuition"],
                "summary": "Regenerate unpaid rows with current fees",
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/tuition-payments/{id}": {
            "put": {
                "tags": ["Tuition"],
                "summary": "Adjust fees on an unpaid payment",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Payment is locked"}
                },
                "security": [{"BearerAuth": []}]
            }
        },
        "/tuition-payments/{id}/mark-paid": {
            "post": {
                "tags": ["Tuition"],
                "summary": "Mark a payment as paid",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/tuition-payments/statements": {
            "post": {
                "tags": ["Tuition"],
                "summary": "Enqueue an asynchronous statement export",
                "responses": {"202": {"description": "Accepted"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/tuition-payments/statements/{id}": {
            "get": {
                "tags": ["Tuition"],
                "summary": "Poll an export job",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/tuition-payments/statements/download": {
            "get": {
                "tags": ["Tuition"],
                "summary": "Download a rendered statement by signed token",
                "parameters": [{"name": "token", "in": "query", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List documents visible to the caller",
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Create a document",
                "responses": {"201": {"description": "Created"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/documents/{id}": {
            "delete": {
                "tags": ["Documents"],
                "summary": "Delete a document",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Deleted"}},
                "security": [{"BearerAuth": []}]
            }
        },
        "/activity": {
            "get": {
                "tags": ["Activity"],
                "summary": "List recent audit entries",
                "parameters": [{"name": "limit", "in": "query", "type": "integer", "default": 50}],
                "responses": {"200": {"description": "OK"}},
                "security": [{"BearerAuth": []}]
            }
        }
    },
    "definitions": {
        "CreateScheduleRequest": {
            "type": "object",
            "required": ["title", "date", "startTime", "endTime"],
            "properties": {
                "title": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "startTime": {"type": "string", "example": "18:00"},
                "endTime": {"type": "string", "example": "19:30"},
                "location": {"type": "string"},
                "note": {"type": "string"},
                "categoryIds": {"type": "array", "items": {"type": "string"}},
                "studentCanRegister": {"type": "boolean"},
                "recurrenceType": {"type": "string", "enum": ["NONE", "DAILY", "WEEKLY", "MONTHLY"]},
                "recurrenceInterval": {"type": "integer"},
                "recurrenceDays": {"type": "array", "items": {"type": "integer"}},
                "recurrenceEndDate": {"type": "string", "format": "date"}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "location": {"type": "string"},
                "note": {"type": "string"},
                "categoryIds": {"type": "array", "items": {"type": "string"}},
                "studentCanRegister": {"type": "boolean"},
                "recurrenceEndDate": {"type": "string", "format": "date"}
            }
        },
        "SetStatusRequest": {
            "type": "object",
            "required": ["scheduleId", "studentId", "status"],
            "properties": {
                "scheduleId": {"type": "string"},
                "studentId": {"type": "string"},
                "status": {"type": "string", "enum": ["CONFIRMED", "TENTATIVE", "DECLINED"]},
                "comment": {"type": "string"}
            }
        },
        "TransferRequest": {
            "type": "object",
            "required": ["targetScheduleId"],
            "properties": {
                "targetScheduleId": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "total": {"type": "integer"}
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
