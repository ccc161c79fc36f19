package classify

import (
	"strings"

	"github.com/fwerkmann/stackflow/pkg/graph"
)

// =============================================================================
// Placement Table - Resource Type to Flow Stage
// =============================================================================

// Placement locates a resource type on the canvas: the flow row it belongs to
// and its ordinal stage within that row.
type Placement struct {
	Flow     graph.Flow
	Position int
}

// Table maps resource types to placements. Supply a custom table via
// [WithTable] to diagram other providers.
type Table map[string]Placement

// TrailingPosition is assigned to types absent from the table so that they
// sort after every known stage in their row.
const TrailingPosition = 9

// DefaultTable returns the built-in placement table for AWS resource types.
//
// Each flow reads left to right as a request path:
//
//	cdn      DNS -> protection -> distribution -> origin storage
//	api      gateway or load balancer entry
//	compute  entry -> compute -> messaging -> data store
//	support  certificates and auth, no data flow
func DefaultTable() Table {
	return Table{
		// CDN flow.
		"aws_route53_zone":            {graph.FlowCDN, 0},
		"aws_wafv2_web_acl":           {graph.FlowCDN, 1},
		"aws_cloudfront_distribution": {graph.FlowCDN, 2},
		"aws_s3_bucket":               {graph.FlowCDN, 3},

		// API flow.
		"aws_api_gateway_rest_api": {graph.FlowAPI, 0},
		"aws_apigatewayv2_api":     {graph.FlowAPI, 0},
		"aws_lb":                   {graph.FlowAPI, 0},
		"aws_alb":                  {graph.FlowAPI, 0},

		// Compute flow.
		"aws_lambda_function_url": {graph.FlowCompute, 0},
		"aws_lambda_function":     {graph.FlowCompute, 1},
		"aws_ecs_service":         {graph.FlowCompute, 1},
		"aws_ecs_cluster":         {graph.FlowCompute, 1},
		"aws_eks_cluster":         {graph.FlowCompute, 1},
		"aws_instance":            {graph.FlowCompute, 1},
		"aws_sqs_queue":           {graph.FlowCompute, 2},
		"aws_sns_topic":           {graph.FlowCompute, 2},
		"aws_eventbridge_rule":    {graph.FlowCompute, 2},
		"aws_kinesis_stream":      {graph.FlowCompute, 2},
		"aws_sfn_state_machine":   {graph.FlowCompute, 2},
		"aws_dynamodb_table":      {graph.FlowCompute, 3},
		"aws_db_instance":         {graph.FlowCompute, 3},
		"aws_rds_cluster":         {graph.FlowCompute, 3},
		"aws_elasticache_cluster": {graph.FlowCompute, 3},
		"aws_efs_file_system":     {graph.FlowCompute, 3},

		// Support flow.
		"aws_acm_certificate":   {graph.FlowSupport, 0},
		"aws_cognito_user_pool": {graph.FlowSupport, 1},
	}
}

// DefaultEntryTypes returns, per flow, the resource types an external actor
// connects to. The support flow has no entries.
func DefaultEntryTypes() map[graph.Flow][]string {
	return map[graph.Flow][]string{
		graph.FlowCDN:     {"aws_route53_zone"},
		graph.FlowAPI:     {"aws_api_gateway_rest_api", "aws_apigatewayv2_api", "aws_lb", "aws_alb"},
		graph.FlowCompute: {"aws_lambda_function_url"},
	}
}

// DefaultSkipTypes returns the plumbing types removed from diagrams entirely:
// permissions, listeners, validation records, and similar wiring that holds
// no architectural information.
func DefaultSkipTypes() []string {
	return []string{
		"aws_route53_record",
		"aws_lb_target_group", "aws_lb_listener",
		"aws_security_group", "aws_security_group_rule",
		"aws_iam_role", "aws_iam_policy", "aws_iam_role_policy_attachment",
		"aws_cloudwatch_log_group", "aws_lambda_permission",
		"aws_s3_bucket_policy", "aws_s3_bucket_public_access_block",
		"aws_acm_certificate_validation",
	}
}

// DefaultSupportTypes returns the types drawn without flow arrows.
func DefaultSupportTypes() []string {
	return []string{"aws_acm_certificate", "aws_cognito_user_pool"}
}

// =============================================================================
// Service Catalog - Display Metadata
// =============================================================================

// ServiceInfo carries display metadata for a resource type.
type ServiceInfo struct {
	Label    string         // Service name drawn under the node (e.g., "Lambda")
	Abbrev   string         // Short code drawn when no icon asset is available
	Category graph.Category // Accent color and icon family
	Icon     string         // Icon asset filename
}

var serviceCatalog = map[string]ServiceInfo{
	"aws_lambda_function":         {"Lambda", "λ", graph.CategoryCompute, "Arch_AWS-Lambda_48.svg"},
	"aws_lambda_function_url":     {"Lambda URL", "λ", graph.CategoryCompute, "Arch_AWS-Lambda_48.svg"},
	"aws_dynamodb_table":          {"DynamoDB", "DDB", graph.CategoryDatabase, "Arch_Amazon-DynamoDB_48.svg"},
	"aws_s3_bucket":               {"S3", "S3", graph.CategoryStorage, "Arch_Amazon-Simple-Storage-Service_48.svg"},
	"aws_cloudfront_distribution": {"CloudFront", "CF", graph.CategoryNetwork, "Arch_Amazon-CloudFront_48.svg"},
	"aws_route53_zone":            {"Route 53", "R53", graph.CategoryNetwork, "Arch_Amazon-Route-53_48.svg"},
	"aws_api_gateway_rest_api":    {"API Gateway", "API", graph.CategoryNetwork, "Arch_Amazon-API-Gateway_48.svg"},
	"aws_apigatewayv2_api":        {"API Gateway", "API", graph.CategoryNetwork, "Arch_Amazon-API-Gateway_48.svg"},
	"aws_lb":                      {"Load Balancer", "ALB", graph.CategoryNetwork, "Arch_Elastic-Load-Balancing_48.svg"},
	"aws_alb":                     {"Load Balancer", "ALB", graph.CategoryNetwork, "Arch_Elastic-Load-Balancing_48.svg"},
	"aws_acm_certificate":         {"ACM Cert", "ACM", graph.CategorySecurity, "Arch_AWS-Certificate-Manager_48.svg"},
	"aws_wafv2_web_acl":           {"WAF", "WAF", graph.CategorySecurity, "Arch_AWS-WAF_48.svg"},
	"aws_cognito_user_pool":       {"Cognito", "COG", graph.CategorySecurity, "Arch_Amazon-Cognito_48.svg"},
	"aws_sqs_queue":               {"SQS", "SQS", graph.CategoryIntegration, "Arch_Amazon-Simple-Queue-Service_48.svg"},
	"aws_sns_topic":               {"SNS", "SNS", graph.CategoryIntegration, "Arch_Amazon-Simple-Notification-Service_48.svg"},
	"aws_ecs_service":             {"ECS", "ECS", graph.CategoryCompute, "Arch_Amazon-Elastic-Container-Service_48.svg"},
	"aws_ecs_cluster":             {"ECS", "ECS", graph.CategoryCompute, "Arch_Amazon-Elastic-Container-Service_48.svg"},
	"aws_eks_cluster":             {"EKS", "EKS", graph.CategoryCompute, "Arch_Amazon-Elastic-Kubernetes-Service_48.svg"},
	"aws_instance":                {"EC2", "EC2", graph.CategoryCompute, "Arch_Amazon-EC2_48.svg"},
	"aws_db_instance":             {"RDS", "RDS", graph.CategoryDatabase, "Arch_Amazon-RDS_48.svg"},
	"aws_rds_cluster":             {"Aurora", "RDS", graph.CategoryDatabase, "Arch_Amazon-Aurora_48.svg"},
	"aws_elasticache_cluster":     {"ElastiCache", "EC", graph.CategoryDatabase, "Arch_Amazon-ElastiCache_48.svg"},
	"aws_sfn_state_machine":       {"Step Functions", "SFN", graph.CategoryIntegration, "Arch_AWS-Step-Functions_48.svg"},
	"aws_eventbridge_rule":        {"EventBridge", "EB", graph.CategoryIntegration, "Arch_Amazon-EventBridge_48.svg"},
	"aws_kinesis_stream":          {"Kinesis", "KIN", graph.CategoryIntegration, "Arch_Amazon-Kinesis_48.svg"},
	"aws_efs_file_system":         {"EFS", "EFS", graph.CategoryStorage, "Arch_Amazon-Elastic-File-System_48.svg"},
}

// Describe returns display metadata for a resource type. Types outside the
// catalog get a label derived from the type name, an abbreviation from its
// first word, the default category, and no icon.
func Describe(nodeType string) ServiceInfo {
	if info, ok := serviceCatalog[nodeType]; ok {
		return info
	}
	return ServiceInfo{
		Label:    humanizeType(nodeType),
		Abbrev:   abbreviateType(nodeType),
		Category: graph.CategoryDefault,
	}
}

// humanizeType turns "aws_internet_gateway" into "Internet Gateway".
func humanizeType(nodeType string) string {
	s := strings.TrimPrefix(nodeType, "aws_")
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// abbreviateType turns "aws_internet_gateway" into "INT".
func abbreviateType(nodeType string) string {
	s := strings.TrimPrefix(nodeType, "aws_")
	if i := strings.IndexByte(s, '_'); i > 0 {
		s = s[:i]
	}
	if len(s) > 3 {
		s = s[:3]
	}
	return strings.ToUpper(s)
}

// =============================================================================
// Inference Patterns - Typed Call Relationships
// =============================================================================

// DependencyPattern is a typed (source, target) pair describing a well-known
// service-to-service call. The Terraform state parser uses these to infer
// data-flow edges when the input carries no explicit dependency information.
type DependencyPattern struct {
	FromType string
	ToType   string
}

// DefaultDependencyPatterns returns the built-in call patterns, ordered from
// entry toward storage. DNS resolution pairs are deliberately absent; see
// [ExcludeDNS] for the matching arrow policy.
func DefaultDependencyPatterns() []DependencyPattern {
	return []DependencyPattern{
		{"aws_lambda_function_url", "aws_lambda_function"},
		{"aws_lambda_function", "aws_dynamodb_table"},
		{"aws_lambda_function", "aws_s3_bucket"},
		{"aws_lambda_function", "aws_rds_cluster"},
		{"aws_lambda_function", "aws_sqs_queue"},
		{"aws_cloudfront_distribution", "aws_s3_bucket"},
		{"aws_cloudfront_distribution", "aws_lambda_function_url"},
		{"aws_api_gateway_rest_api", "aws_lambda_function"},
		{"aws_lb", "aws_ecs_service"},
		{"aws_ecs_service", "aws_dynamodb_table"},
		{"aws_sqs_queue", "aws_lambda_function"},
	}
}

// Cross-module call heuristic: content origins in one module likely call
// service entries in another.
var (
	contentOriginTypes = map[string]bool{
		"aws_s3_bucket":               true,
		"aws_cloudfront_distribution": true,
	}
	serviceEntryTypes = map[string]bool{
		"aws_lambda_function_url":  true,
		"aws_api_gateway_rest_api": true,
		"aws_apigatewayv2_api":     true,
	}
)
