// Package docs registers the OpenAPI document served at /swagger/doc.json.
//
// Regenerate after changing handler annotations:
//
//	swag init -g cmd/server/main.go -o docs --v3.1
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
	"openapi": "3.1.0",
	"info": {
		"title": "{{.Title}}",
		"description": "{{.Description}}",
		"version": "{{.Version}}",
		"contact": {
			"name": "API Support"
		}
	},
	"servers": [
		{
			"url": "/api/v1"
		}
	],
	"paths": {
		"/integrations": {
			"get": {
				"operationId": "listIntegrations",
				"summary": "List integrations",
				"description": "Lists the caller's integrations, optionally filtered by type and status",
				"tags": [
					"integrations"
				],
				"parameters": [
					{
						"name": "type",
						"in": "query",
						"schema": {
							"type": "string",
							"enum": [
								"HOTJAR",
								"MIXPANEL",
								"AMPLITUDE",
								"CUSTOM"
							]
						}
					},
					{
						"name": "status",
						"in": "query",
						"schema": {
							"type": "string",
							"enum": [
								"ACTIVE",
								"INACTIVE",
								"ERROR",
								"SYNCING"
							]
						}
					},
					{
						"name": "sortBy",
						"in": "query",
						"schema": {
							"type": "string",
							"enum": [
								"createdAt",
								"updatedAt",
								"name",
								"type",
								"status",
								"lastSync"
							]
						}
					},
					{
						"name": "sortOrder",
						"in": "query",
						"schema": {
							"type": "string",
							"enum": [
								"asc",
								"desc"
							]
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"type": "array",
													"items": {
														"$ref": "#/components/schemas/integration.IntegrationResponse"
													}
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"500": {
						"description": "Internal Server Error",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"operationId": "createIntegration",
				"summary": "Create integration",
				"description": "Validates the provider config, tests the connection and stores the integration",
				"tags": [
					"integrations"
				],
				"requestBody": {
					"required": true,
					"content": {
						"application/json": {
							"schema": {
								"$ref": "#/components/schemas/integration.CreateIntegrationRequest"
							}
						}
					}
				},
				"responses": {
					"201": {
						"description": "Created",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.IntegrationResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"409": {
						"description": "Conflict",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"502": {
						"description": "Bad Gateway",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/integrations/providers": {
			"get": {
				"operationId": "listIntegrationProviders",
				"summary": "List providers",
				"description": "Lists the supported provider types and their required config keys",
				"tags": [
					"integrations"
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"type": "array",
													"items": {
														"$ref": "#/components/schemas/integration.ProviderInfo"
													}
												}
											}
										}
									]
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/integrations/test": {
			"post": {
				"operationId": "testIntegrationConfig",
				"summary": "Test provider config",
				"description": "Tries an unsaved config against its provider and returns sample data",
				"tags": [
					"integrations"
				],
				"requestBody": {
					"required": true,
					"content": {
						"application/json": {
							"schema": {
								"$ref": "#/components/schemas/integration.TestIntegrationRequest"
							}
						}
					}
				},
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.TestIntegrationResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"502": {
						"description": "Bad Gateway",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/integrations/webhook": {
			"get": {
				"operationId": "listWebhookLogs",
				"summary": "List webhook logs",
				"description": "Returns the most recent log entries of one integration",
				"tags": [
					"webhooks"
				],
				"parameters": [
					{
						"name": "integrationId",
						"in": "query",
						"required": true,
						"schema": {
							"type": "string",
							"format": "uuid"
						}
					},
					{
						"name": "limit",
						"in": "query",
						"schema": {
							"type": "integer",
							"minimum": 1,
							"maximum": 500
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"type": "array",
													"items": {
														"$ref": "#/components/schemas/integration.LogResponse"
													}
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"operationId": "receiveWebhook",
				"summary": "Receive provider webhook",
				"description": "Verifies the HMAC signature of the raw body and applies the event",
				"tags": [
					"webhooks"
				],
				"parameters": [
					{
						"name": "X-Webhook-Delivery",
						"in": "header",
						"schema": {
							"type": "string",
							"maxLength": 128
						},
						"description": "Delivery id used when the body carries none"
					}
				],
				"requestBody": {
					"required": true,
					"content": {
						"application/json": {
							"schema": {
								"$ref": "#/components/schemas/integration.WebhookEvent"
							}
						}
					}
				},
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.WebhookResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Invalid signature",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"413": {
						"description": "Request Entity Too Large",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"WebhookSignature": []
					}
				]
			}
		},
		"/integrations/scheduled-sync": {
			"get": {
				"operationId": "listScheduledSyncCandidates",
				"summary": "List scheduled-sync candidates",
				"description": "Lists integrations eligible for the next scheduled sync",
				"tags": [
					"scheduled-sync"
				],
				"parameters": [
					{
						"name": "type",
						"in": "query",
						"schema": {
							"type": "string",
							"enum": [
								"HOTJAR",
								"MIXPANEL",
								"AMPLITUDE",
								"CUSTOM"
							]
						}
					},
					{
						"name": "status",
						"in": "query",
						"schema": {
							"type": "string",
							"enum": [
								"ACTIVE",
								"INACTIVE",
								"ERROR",
								"SYNCING"
							]
						}
					},
					{
						"name": "limit",
						"in": "query",
						"schema": {
							"type": "integer",
							"minimum": 1,
							"maximum": 500
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.CandidatesResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"SystemToken": []
					}
				]
			},
			"post": {
				"operationId": "runScheduledSync",
				"summary": "Run scheduled sync",
				"description": "Syncs a batch of integrations; per-item failures are reported in the results",
				"tags": [
					"scheduled-sync"
				],
				"requestBody": {
					"required": true,
					"content": {
						"application/json": {
							"schema": {
								"$ref": "#/components/schemas/integration.BatchSyncRequest"
							}
						}
					}
				},
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.BatchSyncResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"SystemToken": []
					}
				]
			}
		},
		"/integrations/{id}": {
			"get": {
				"operationId": "getIntegration",
				"summary": "Get integration",
				"description": "Returns one integration with its latest log entries",
				"tags": [
					"integrations"
				],
				"parameters": [
					{
						"name": "id",
						"in": "path",
						"required": true,
						"description": "Integration ID",
						"schema": {
							"type": "string",
							"format": "uuid"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.IntegrationDetailResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"put": {
				"operationId": "updateIntegration",
				"summary": "Update integration",
				"description": "Partially updates name, config or status; a changed config is re-tested",
				"tags": [
					"integrations"
				],
				"parameters": [
					{
						"name": "id",
						"in": "path",
						"required": true,
						"description": "Integration ID",
						"schema": {
							"type": "string",
							"format": "uuid"
						}
					}
				],
				"requestBody": {
					"required": true,
					"content": {
						"application/json": {
							"schema": {
								"$ref": "#/components/schemas/integration.UpdateIntegrationRequest"
							}
						}
					}
				},
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.IntegrationResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"409": {
						"description": "Conflict",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"operationId": "deleteIntegration",
				"summary": "Delete integration",
				"description": "Deletes an integration together with its logs and project links",
				"tags": [
					"integrations"
				],
				"parameters": [
					{
						"name": "id",
						"in": "path",
						"required": true,
						"description": "Integration ID",
						"schema": {
							"type": "string",
							"format": "uuid"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"409": {
						"description": "Conflict",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/integrations/{id}/sync": {
			"get": {
				"operationId": "getIntegrationSyncStatus",
				"summary": "Get sync status",
				"description": "Returns the sync snapshot of one integration",
				"tags": [
					"sync"
				],
				"parameters": [
					{
						"name": "id",
						"in": "path",
						"required": true,
						"description": "Integration ID",
						"schema": {
							"type": "string",
							"format": "uuid"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.SyncStatusResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"operationId": "syncIntegration",
				"summary": "Sync integration",
				"description": "Fetches fresh data from the provider; the body is optional",
				"tags": [
					"sync"
				],
				"parameters": [
					{
						"name": "id",
						"in": "path",
						"required": true,
						"description": "Integration ID",
						"schema": {
							"type": "string",
							"format": "uuid"
						}
					}
				],
				"requestBody": {
					"required": false,
					"content": {
						"application/json": {
							"schema": {
								"$ref": "#/components/schemas/integration.SyncRequest"
							}
						}
					}
				},
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/integration.SyncResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"409": {
						"description": "Sync already in progress",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"502": {
						"description": "Bad Gateway",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/integrations/{id}/export": {
			"get": {
				"operationId": "exportIntegration",
				"summary": "Export integration",
				"description": "Downloads the integration, its logs and current provider data as a JSON document",
				"tags": [
					"integrations"
				],
				"parameters": [
					{
						"name": "id",
						"in": "path",
						"required": true,
						"description": "Integration ID",
						"schema": {
							"type": "string",
							"format": "uuid"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"headers": {
							"X-Export-Archive-URL": {
								"description": "Presigned URL of the archived copy",
								"schema": {
									"type": "string"
								}
							}
						},
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/integration.ExportDocument"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/integrations/{id}/actions/{action}": {
			"post": {
				"operationId": "runIntegrationAction",
				"summary": "Run provider action",
				"description": "Runs a provider-specific action such as a recordings query",
				"tags": [
					"integrations"
				],
				"parameters": [
					{
						"name": "id",
						"in": "path",
						"required": true,
						"description": "Integration ID",
						"schema": {
							"type": "string",
							"format": "uuid"
						}
					},
					{
						"name": "action",
						"in": "path",
						"required": true,
						"schema": {
							"type": "string"
						}
					}
				],
				"requestBody": {
					"required": false,
					"content": {
						"application/json": {
							"schema": {
								"$ref": "#/components/schemas/integration.RunActionRequest"
							}
						}
					}
				},
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"type": "object",
													"additionalProperties": true
												}
											}
										}
									]
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					},
					"502": {
						"description": "Bad Gateway",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/system/info": {
			"get": {
				"operationId": "getSystemInfo",
				"summary": "Get system information",
				"description": "Returns the service name, version and uptime",
				"tags": [
					"system"
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/handler.SystemInfoResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"500": {
						"description": "Internal Server Error",
						"content": {
							"application/json": {
								"schema": {
									"$ref": "#/components/schemas/dto.Response"
								}
							}
						}
					}
				}
			}
		},
		"/system/health": {
			"get": {
				"operationId": "getSystemHealth",
				"summary": "Health check",
				"description": "Reports service health; an unreachable database reports 503",
				"tags": [
					"system"
				],
				"responses": {
					"200": {
						"description": "OK",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/handler.HealthResponse"
												}
											}
										}
									]
								}
							}
						}
					},
					"503": {
						"description": "Service Unavailable",
						"content": {
							"application/json": {
								"schema": {
									"allOf": [
										{
											"$ref": "#/components/schemas/dto.Response"
										},
										{
											"type": "object",
											"properties": {
												"data": {
													"$ref": "#/components/schemas/handler.HealthResponse"
												}
											}
										}
									]
								}
							}
						}
					}
				}
			}
		}
	},
	"components": {
		"schemas": {
			"dto.Response": {
				"type": "object",
				"properties": {
					"success": {
						"type": "boolean"
					},
					"data": {},
					"error": {
						"$ref": "#/components/schemas/dto.ErrorInfo"
					}
				}
			},
			"dto.ErrorInfo": {
				"type": "object",
				"properties": {
					"code": {
						"type": "string"
					},
					"message": {
						"type": "string"
					},
					"request_id": {
						"type": "string"
					},
					"timestamp": {
						"type": "string",
						"format": "date-time"
					},
					"details": {
						"type": "array",
						"items": {
							"$ref": "#/components/schemas/dto.ValidationDetail"
						}
					}
				}
			},
			"dto.ValidationDetail": {
				"type": "object",
				"properties": {
					"field": {
						"type": "string"
					},
					"message": {
						"type": "string"
					}
				}
			},
			"integration.CreateIntegrationRequest": {
				"type": "object",
				"properties": {
					"type": {
						"type": "string",
						"enum": [
							"HOTJAR",
							"MIXPANEL",
							"AMPLITUDE",
							"CUSTOM"
						]
					},
					"name": {
						"type": "string",
						"minLength": 1,
						"maxLength": 200
					},
					"config": {
						"type": "object",
						"additionalProperties": true
					},
					"projectId": {
						"type": "string",
						"format": "uuid"
					}
				},
				"required": [
					"type",
					"name",
					"config"
				]
			},
			"integration.UpdateIntegrationRequest": {
				"type": "object",
				"properties": {
					"name": {
						"type": "string",
						"minLength": 1,
						"maxLength": 200
					},
					"config": {
						"type": "object",
						"additionalProperties": true
					},
					"status": {
						"type": "string",
						"enum": [
							"ACTIVE",
							"INACTIVE",
							"ERROR"
						]
					}
				}
			},
			"integration.TestIntegrationRequest": {
				"type": "object",
				"properties": {
					"type": {
						"type": "string",
						"enum": [
							"HOTJAR",
							"MIXPANEL",
							"AMPLITUDE",
							"CUSTOM"
						]
					},
					"config": {
						"type": "object",
						"additionalProperties": true
					}
				},
				"required": [
					"type",
					"config"
				]
			},
			"integration.BatchSyncRequest": {
				"type": "object",
				"properties": {
					"integrationIds": {
						"type": "array",
						"items": {
							"type": "string",
							"format": "uuid"
						}
					},
					"force": {
						"type": "boolean"
					}
				},
				"required": [
					"integrationIds"
				]
			},
			"integration.WebhookEvent": {
				"type": "object",
				"properties": {
					"integrationId": {
						"type": "string",
						"format": "uuid"
					},
					"type": {
						"type": "string",
						"enum": [
							"sync_start",
							"sync_complete",
							"error",
							"data_update",
							"status_change"
						]
					},
					"data": {
						"type": "object",
						"additionalProperties": true
					},
					"message": {
						"type": "string"
					},
					"timestamp": {
						"type": "string"
					},
					"deliveryId": {
						"type": "string",
						"maxLength": 128
					}
				},
				"required": [
					"integrationId",
					"type"
				]
			},
			"integration.RunActionRequest": {
				"type": "object",
				"properties": {
					"params": {
						"type": "object",
						"additionalProperties": true
					}
				}
			},
			"integration.SyncRequest": {
				"type": "object",
				"properties": {
					"force": {
						"type": "boolean"
					}
				}
			},
			"integration.IntegrationResponse": {
				"type": "object",
				"properties": {
					"id": {
						"type": "string",
						"format": "uuid"
					},
					"userId": {
						"type": "string",
						"format": "uuid"
					},
					"type": {
						"type": "string",
						"enum": [
							"HOTJAR",
							"MIXPANEL",
							"AMPLITUDE",
							"CUSTOM"
						]
					},
					"name": {
						"type": "string"
					},
					"config": {
						"type": "object",
						"additionalProperties": true
					},
					"status": {
						"type": "string",
						"enum": [
							"ACTIVE",
							"INACTIVE",
							"ERROR",
							"SYNCING"
						]
					},
					"lastSync": {
						"type": "string",
						"format": "date-time"
					},
					"createdAt": {
						"type": "string",
						"format": "date-time"
					},
					"updatedAt": {
						"type": "string",
						"format": "date-time"
					},
					"projects": {
						"type": "array",
						"items": {
							"type": "string",
							"format": "uuid"
						}
					}
				}
			},
			"integration.IntegrationDetailResponse": {
				"allOf": [
					{
						"$ref": "#/components/schemas/integration.IntegrationResponse"
					},
					{
						"type": "object",
						"properties": {
							"logs": {
								"type": "array",
								"items": {
									"$ref": "#/components/schemas/integration.LogResponse"
								}
							}
						}
					}
				]
			},
			"integration.LogResponse": {
				"type": "object",
				"properties": {
					"id": {
						"type": "string",
						"format": "uuid"
					},
					"integrationId": {
						"type": "string",
						"format": "uuid"
					},
					"type": {
						"type": "string",
						"enum": [
							"sync_start",
							"sync_complete",
							"error",
							"data_update",
							"status_change"
						]
					},
					"message": {
						"type": "string"
					},
					"data": {
						"type": "object",
						"additionalProperties": true
					},
					"timestamp": {
						"type": "string",
						"format": "date-time"
					}
				}
			},
			"integration.SyncStatusResponse": {
				"type": "object",
				"properties": {
					"id": {
						"type": "string",
						"format": "uuid"
					},
					"status": {
						"type": "string",
						"enum": [
							"ACTIVE",
							"INACTIVE",
							"ERROR",
							"SYNCING"
						]
					},
					"lastSync": {
						"type": "string",
						"format": "date-time"
					},
					"lastUpdated": {
						"type": "string",
						"format": "date-time"
					}
				}
			},
			"integration.SyncResponse": {
				"type": "object",
				"properties": {
					"success": {
						"type": "boolean"
					},
					"message": {
						"type": "string"
					},
					"data": {
						"type": "object",
						"additionalProperties": true
					},
					"lastSync": {
						"type": "string",
						"format": "date-time"
					}
				}
			},
			"integration.BatchItemResult": {
				"type": "object",
				"properties": {
					"integrationId": {
						"type": "string",
						"format": "uuid"
					},
					"success": {
						"type": "boolean"
					},
					"message": {
						"type": "string"
					},
					"dataPoints": {
						"type": "integer"
					},
					"error": {
						"type": "string"
					}
				}
			},
			"integration.BatchSyncResponse": {
				"type": "object",
				"properties": {
					"success": {
						"type": "boolean"
					},
					"message": {
						"type": "string"
					},
					"results": {
						"type": "array",
						"items": {
							"$ref": "#/components/schemas/integration.BatchItemResult"
						}
					}
				}
			},
			"integration.CandidatesResponse": {
				"type": "object",
				"properties": {
					"integrations": {
						"type": "array",
						"items": {
							"$ref": "#/components/schemas/integration.IntegrationResponse"
						}
					},
					"total": {
						"type": "integer"
					},
					"readyForSync": {
						"type": "integer"
					}
				}
			},
			"integration.TestIntegrationResponse": {
				"type": "object",
				"properties": {
					"success": {
						"type": "boolean"
					},
					"message": {
						"type": "string"
					},
					"type": {
						"type": "string",
						"enum": [
							"HOTJAR",
							"MIXPANEL",
							"AMPLITUDE",
							"CUSTOM"
						]
					},
					"sampleData": {
						"type": "object",
						"additionalProperties": true
					}
				}
			},
			"integration.WebhookResponse": {
				"type": "object",
				"properties": {
					"success": {
						"type": "boolean"
					},
					"message": {
						"type": "string"
					},
					"logId": {
						"type": "string",
						"format": "uuid"
					},
					"duplicate": {
						"type": "boolean"
					}
				}
			},
			"integration.ProviderInfo": {
				"type": "object",
				"properties": {
					"type": {
						"type": "string",
						"enum": [
							"HOTJAR",
							"MIXPANEL",
							"AMPLITUDE",
							"CUSTOM"
						]
					},
					"displayName": {
						"type": "string"
					},
					"requiredKeys": {
						"type": "array",
						"items": {
							"type": "string"
						}
					},
					"syncable": {
						"type": "boolean"
					}
				}
			},
			"integration.ExportDocument": {
				"type": "object",
				"properties": {
					"integration": {
						"type": "object",
						"additionalProperties": true
					},
					"logs": {
						"type": "array",
						"items": {
							"$ref": "#/components/schemas/integration.LogResponse"
						}
					},
					"currentData": {},
					"exportDate": {
						"type": "string",
						"format": "date-time"
					},
					"exportVersion": {
						"type": "string"
					}
				}
			},
			"handler.SystemInfoResponse": {
				"type": "object",
				"properties": {
					"name": {
						"type": "string"
					},
					"version": {
						"type": "string"
					},
					"go_version": {
						"type": "string"
					},
					"uptime": {
						"type": "string"
					}
				}
			},
			"handler.HealthResponse": {
				"type": "object",
				"properties": {
					"status": {
						"type": "string"
					},
					"database": {
						"type": "string"
					},
					"timestamp": {
						"type": "string"
					}
				}
			}
		},
		"securitySchemes": {
			"BearerAuth": {
				"type": "http",
				"scheme": "bearer",
				"bearerFormat": "JWT",
				"description": "End-user access token"
			},
			"SystemToken": {
				"type": "http",
				"scheme": "bearer",
				"description": "Static token for scheduled-sync callers"
			},
			"WebhookSignature": {
				"type": "apiKey",
				"in": "header",
				"name": "X-Webhook-Signature",
				"description": "HMAC-SHA256 of the raw body"
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Title:            "Insight Integration Sync API",
	Description:      "Connects analytics providers and syncs their data",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
