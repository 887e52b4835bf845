package dynamo

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr turns set (field -> value) and remove (fields) into one
// UpdateExpression. Fields are sorted so the output is stable.
func buildUpdateExpr(set map[string]interface{}, remove ...string) (updateExpr, error) {
	if len(set) == 0 && len(remove) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	ue := updateExpr{Names: make(map[string]string)}

	var clauses []string
	if len(set) > 0 {
		ue.Values = make(map[string]types.AttributeValue, len(set))
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		parts := make([]string, 0, len(keys))
		for i, k := range keys {
			av, err := attributevalue.Marshal(set[k])
			if err != nil {
				return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
			}
			nameKey, valueKey := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
			ue.Names[nameKey] = k
			ue.Values[valueKey] = av
			parts = append(parts, nameKey+" = "+valueKey)
		}
		clauses = append(clauses, "SET "+strings.Join(parts, ", "))
	}

	if len(remove) > 0 {
		sorted := slices.Sorted(slices.Values(remove))
		parts := make([]string, 0, len(sorted))
		for i, k := range sorted {
			nameKey := fmt.Sprintf("#r%d", i)
			ue.Names[nameKey] = k
			parts = append(parts, nameKey)
		}
		clauses = append(clauses, "REMOVE "+strings.Join(parts, ", "))
	}

	ue.Expr = strings.Join(clauses, " ")
	return ue, nil
}
