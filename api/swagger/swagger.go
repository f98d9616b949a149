package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Defense Scheduler API",
        "description": "Optimizing engine and REST surface for academic project defense scheduling",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Solver", "description": "Defense scheduling runs, validation, export"},
        {"name": "Schedules", "description": "Persisted defense schedules"},
        {"name": "Roster", "description": "Instructors, projects, classrooms, timeslots"},
        {"name": "Authentication", "description": "Login and session management"},
        {"name": "Users", "description": "User administration"},
        {"name": "Observability", "description": "Metrics and health"}
    ],
    "paths": {
        "/solver/runs": {
            "get": {
                "tags": ["Solver"],
                "summary": "List solver runs",
                "responses": {
                    "200": {"description": "Run summaries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Solver"],
                "summary": "Start a solver run",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartRunRequest"}}
                ],
                "responses": {
                    "200": {"description": "Solved inline", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or unknown strategy"},
                    "422": {"description": "Roster cannot be scheduled"}
                }
            }
        },
        "/solver/runs/{id}": {
            "get": {
                "tags": ["Solver"],
                "summary": "Get run status and result",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Run document", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired run"}
                }
            },
            "delete": {
                "tags": ["Solver"],
                "summary": "Discard a run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/solver/runs/{id}/save": {
            "post": {
                "tags": ["Solver"],
                "summary": "Persist a finished run as a saved schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired run"},
                    "409": {"description": "Run has not finished"}
                }
            }
        },
        "/solver/runs/{id}/export": {
            "get": {
                "tags": ["Solver"],
                "summary": "Export a finished run",
                "description": "kind=schedule renders the timetable, kind=loads the per-instructor session counts. X-Download-URL on the response carries a signed re-download link.",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "kind", "in": "query", "type": "string", "enum": ["schedule", "loads"]}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "404": {"description": "Unknown or expired run"},
                    "409": {"description": "Run has not finished"}
                }
            }
        },
        "/solver/validate": {
            "post": {
                "tags": ["Solver"],
                "summary": "Validate an assignment list",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Validation report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown ids or malformed payload"}
                }
            }
        },
        "/solver/strategies": {
            "get": {
                "tags": ["Solver"],
                "summary": "List selectable strategies",
                "responses": {
                    "200": {"description": "Strategy names and the default", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List saved schedules",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Saved schedules", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a saved schedule with assignments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Schedule detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a saved schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Solver"],
                "summary": "Download a previously generated export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"},
                    "404": {"description": "File no longer available"}
                }
            }
        },
        "/instructors": {
            "get": {
                "tags": ["Roster"],
                "summary": "List instructors",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string", "enum": ["senior", "junior"]},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Instructors", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Roster"],
                "summary": "Create instructor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInstructorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already exists"}
                }
            }
        },
        "/projects": {
            "get": {
                "tags": ["Roster"],
                "summary": "List projects",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string", "enum": ["interim", "final"]},
                    {"name": "makeup", "in": "query", "type": "boolean"},
                    {"name": "responsibleId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Projects", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Roster"],
                "summary": "Create project",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Responsible instructor unknown or inactive"}
                }
            }
        },
        "/classrooms": {
            "get": {
                "tags": ["Roster"],
                "summary": "List classrooms",
                "responses": {
                    "200": {"description": "Classrooms", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Roster"],
                "summary": "Create classroom",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timeslots": {
            "get": {
                "tags": ["Roster"],
                "summary": "List timeslots",
                "responses": {
                    "200": {"description": "Timeslots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Roster"],
                "summary": "Create timeslot",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "endsAt not after startsAt"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens and user info", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Solver metrics snapshot",
                "responses": {
                    "200": {"description": "Counters and gauges", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "StartRunRequest": {
            "type": "object",
            "properties": {
                "strategy": {"type": "string", "enum": ["tabu", "genetic", "colony"]},
                "seed": {"type": "integer"},
                "timeBudgetMs": {"type": "integer"},
                "maxIterations": {"type": "integer"},
                "loadTolerance": {"type": "number"},
                "tabuSize": {"type": "integer"},
                "populationSize": {"type": "integer"},
                "colonySize": {"type": "integer"}
            }
        },
        "ValidateRequest": {
            "type": "object",
            "required": ["assignments"],
            "properties": {
                "assignments": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AssignmentInput"}
                },
                "loadTolerance": {"type": "number"}
            }
        },
        "AssignmentInput": {
            "type": "object",
            "required": ["project_id", "classroom_id", "timeslot_id", "instructor_ids"],
            "properties": {
                "project_id": {"type": "string"},
                "classroom_id": {"type": "string"},
                "timeslot_id": {"type": "string"},
                "instructor_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SaveScheduleRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "CreateInstructorRequest": {
            "type": "object",
            "required": ["email", "fullName", "category"],
            "properties": {
                "code": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "category": {"type": "string", "enum": ["senior", "junior"]}
            }
        },
        "CreateProjectRequest": {
            "type": "object",
            "required": ["title", "studentName", "kind", "responsibleId"],
            "properties": {
                "title": {"type": "string"},
                "studentName": {"type": "string"},
                "kind": {"type": "string", "enum": ["interim", "final"]},
                "makeup": {"type": "boolean"},
                "responsibleId": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
                "status": {"type": "integer"}
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
