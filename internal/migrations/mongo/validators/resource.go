package validators

import "go.mongodb.org/mongo-driver/bson"

var ResourceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"kind",
			"total_units",
			"capacity_units",
			"status",
			"pricing_mode",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"kind": bson.M{
				"bsonType": "string",
				"enum": []string{
					"room",
					"seat",
					"vehicle",
					"table",
					"property",
				},
			},

			"total_units": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  100000,
			},

			"capacity_units": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"available",
					"reserved",
					"occupied",
					"retired",
				},
			},

			"unit_price_cents": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"pricing_mode": bson.M{
				"bsonType": "string",
				"enum": []string{
					"nightly",
					"per_unit",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
