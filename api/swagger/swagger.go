package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Class timetable generation and scheduling configuration",
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
        {
            "name": "Scheduler",
            "description": "Timetable configuration, generation and apply lifecycle"
        },
        {
            "name": "Schedules",
            "description": "Applied timetable listing and export"
        }
    ],
    "paths": {
        "/scheduler/meta": {
            "get": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Scheduler configuration lists",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/scheduler/config": {
            "get": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Get the weekly grid configuration",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Replace the weekly grid configuration",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ScheduleConfigRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/teacher-subjects/{teacherId}": {
            "put": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Replace the subjects a teacher can teach",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "teacherId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TeacherSubjectsRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/class-subjects/{classId}": {
            "put": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Replace the weekly subject quotas of a class",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "classId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ClassSubjectsRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/class-subjects-matrix": {
            "put": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Replace the whole class-subject matrix",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ClassSubjectsMatrixRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/teacher-limit/{teacherId}": {
            "put": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Set load limits for a teacher",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "teacherId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TeacherLimitRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/teacher-limits-bulk": {
            "put": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Set load limits for many teachers",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TeacherLimitsBulkRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/readiness": {
            "post": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Check whether the configuration can produce a schedule",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/GenerateRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/generate": {
            "post": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Generate a timetable proposal",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/GenerateRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/apply": {
            "post": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Persist a generated timetable",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "No rows to apply",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Rows collide with scheduled entries; see meta.conflicts",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ApplyRequest"
                        }
                    }
                ]
            }
        },
        "/scheduler/reset": {
            "post": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Delete every persisted schedule row",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "List applied schedule rows",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "day",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "classId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "teacherId",
                        "in": "query",
                        "type": "string"
                    }
                ]
            }
        },
        "/schedules/export": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Download applied schedule rows",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ]
                    },
                    {
                        "name": "day",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "classId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "teacherId",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "GenerateRequest": {
            "type": "object",
            "properties": {
                "days": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "hoursByDay": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "seed": {
                    "type": "integer"
                }
            }
        },
        "ApplyRow": {
            "type": "object",
            "properties": {
                "day": {
                    "type": "string"
                },
                "hour": {
                    "type": "integer"
                },
                "classId": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "teacherId": {
                    "type": "string"
                }
            },
            "required": [
                "day",
                "hour",
                "classId",
                "subjectId",
                "teacherId"
            ]
        },
        "ApplyRequest": {
            "type": "object",
            "properties": {
                "runId": {
                    "type": "string"
                },
                "rows": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ApplyRow"
                    }
                }
            }
        },
        "ScheduleConfigRequest": {
            "type": "object",
            "properties": {
                "days": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "hoursByDay": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "slotDuration": {
                    "type": "integer"
                },
                "startTimeByDay": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            },
            "required": [
                "days",
                "hoursByDay",
                "slotDuration"
            ]
        },
        "SubjectPriority": {
            "type": "object",
            "properties": {
                "subjectId": {
                    "type": "string"
                },
                "priority": {
                    "type": "integer"
                }
            },
            "required": [
                "subjectId"
            ]
        },
        "TeacherSubjectsRequest": {
            "type": "object",
            "properties": {
                "subjects": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/SubjectPriority"
                    }
                },
                "subjectIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "ClassSubjectHours": {
            "type": "object",
            "properties": {
                "subjectId": {
                    "type": "string"
                },
                "hoursPerWeek": {
                    "type": "integer"
                }
            },
            "required": [
                "subjectId"
            ]
        },
        "ClassSubjectsRequest": {
            "type": "object",
            "properties": {
                "subjects": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ClassSubjectHours"
                    }
                }
            }
        },
        "ClassSubjectMapping": {
            "type": "object",
            "properties": {
                "classId": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "hoursPerWeek": {
                    "type": "integer"
                }
            },
            "required": [
                "classId",
                "subjectId"
            ]
        },
        "ClassSubjectsMatrixRequest": {
            "type": "object",
            "properties": {
                "mappings": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ClassSubjectMapping"
                    }
                }
            }
        },
        "TeacherLimitRequest": {
            "type": "object",
            "properties": {
                "maxWeek": {
                    "type": "integer"
                },
                "maxDay": {
                    "type": "integer"
                },
                "minLinier": {
                    "type": "integer"
                }
            }
        },
        "TeacherLimitItem": {
            "type": "object",
            "properties": {
                "teacherId": {
                    "type": "string"
                },
                "maxWeek": {
                    "type": "integer"
                },
                "maxDay": {
                    "type": "integer"
                },
                "minLinier": {
                    "type": "integer"
                }
            },
            "required": [
                "teacherId"
            ]
        },
        "TeacherLimitsBulkRequest": {
            "type": "object",
            "properties": {
                "limits": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/TeacherLimitItem"
                    }
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
