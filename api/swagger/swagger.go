package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Scheduling API",
        "description": "Evolutionary weekly timetable generation and validation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetables", "description": "Timetable generation, validation and lifecycle"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a weekly timetable",
                "parameters": [
                    {"name": "async", "in": "query", "type": "boolean", "description": "Queue the run instead of waiting"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Missing reference data", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get schedule with items",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/progress": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Poll generation progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/validation": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Re-validate persisted schedule items",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/status": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Move a schedule through its approval lifecycle",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download schedule as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "academic_year_id": {"type": "string"},
                "semester": {"type": "string"},
                "program_id": {"type": "string"},
                "year_level": {"type": "integer"},
                "block_section": {"type": "string"},
                "created_by": {"type": "string"},
                "population_size": {"type": "integer"},
                "generations": {"type": "integer"},
                "mutation_rate": {"type": "integer"},
                "crossover_rate": {"type": "integer"},
                "elite_size": {"type": "integer"}
            },
            "required": ["academic_year_id", "semester", "program_id", "year_level"]
        },
        "UpdateScheduleStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["PENDING_APPROVAL", "APPROVED", "REJECTED"]}
            },
            "required": ["status"]
        },
        "ScheduleItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "schedule_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "instructor_id": {"type": "string"},
                "room_id": {"type": "string"},
                "day": {"type": "integer"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "block_section": {"type": "string"},
                "meeting_type": {"type": "string"},
                "hours": {"type": "number"}
            }
        },
        "GenerationProgress": {
            "type": "object",
            "properties": {
                "current_generation": {"type": "integer"},
                "total_generations": {"type": "integer"},
                "best_fitness": {"type": "integer"},
                "updated_at": {"type": "string"}
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
