// Package hcl reads terraform source files directly, without requiring a
// state file or a graph dump.
//
// Resource blocks become graph nodes; VPC plumbing and per-service
// configuration blocks (route tables, IAM, listener rules, bucket policies)
// are consumed for topology but never emitted. Three edge sources are
// combined, in order of confidence:
//
//  1. expression references: any traversal such as aws_dynamodb_table.users.name
//     inside another resource's attributes is an explicit dependency.
//  2. security group reachability: an ingress rule admitting traffic from a
//     source group connects every resource attached to the source group to
//     every resource attached to the target group.
//  3. the call-pattern table, covering managed-service pairs terraform source
//     never mentions explicitly.
//
// Subnet references additionally mark nodes as publicly or privately placed,
// which the classifier folds into its tier heuristic for unknown types.
package hcl

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/fwerkmann/stackflow/pkg/classify"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
)

// Options configures terraform source parsing.
type Options struct {
	// Patterns drives call-pattern edge inference. Nil selects
	// [classify.DefaultDependencyPatterns].
	Patterns []classify.DependencyPattern
}

func (o Options) patterns() []classify.DependencyPattern {
	if o.Patterns != nil {
		return o.Patterns
	}
	return classify.DefaultDependencyPatterns()
}

// ParseDir reads every .tf file directly inside dir and merges them into one
// graph, the way terraform itself treats a directory as a single module.
func ParseDir(dir string, opts Options) (*graph.Graph, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read terraform directory")
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no .tf files in %s", dir)
	}

	parser := hclparse.NewParser()
	w := newWalker(opts)
	for _, path := range paths {
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, errors.Wrap(errors.ErrCodeMalformedInput, diags, "parse %s", filepath.Base(path))
		}
		w.file(f)
	}
	return w.graph(), nil
}

// Parse reads a single terraform source buffer. The filename only labels
// parse diagnostics.
func Parse(data []byte, filename string, opts Options) (*graph.Graph, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, diags, "parse %s", filename)
	}
	w := newWalker(opts)
	w.file(f)
	return w.graph(), nil
}

// structuralTypes never become nodes: they describe how the interesting
// resources are wired or configured, not what the architecture is made of.
var structuralTypes = map[string]bool{
	// VPC plumbing
	"aws_vpc": true, "aws_subnet": true, "aws_internet_gateway": true,
	"aws_nat_gateway": true, "aws_route_table": true,
	"aws_route_table_association": true, "aws_route": true, "aws_eip": true,
	"aws_network_interface": true, "aws_db_subnet_group": true,
	"aws_elasticache_subnet_group": true,
	"aws_security_group":           true, "aws_security_group_rule": true,
	"aws_vpc_security_group_ingress_rule": true, "aws_vpc_security_group_egress_rule": true,

	// IAM
	"aws_iam_role": true, "aws_iam_policy": true, "aws_iam_role_policy": true,
	"aws_iam_role_policy_attachment": true, "aws_iam_instance_profile": true,

	// Load balancer configuration
	"aws_lb_target_group": true, "aws_lb_listener": true,
	"aws_lb_target_group_attachment": true, "aws_lb_listener_rule": true,
	"aws_lb_listener_certificate":   true,

	// Observability and secrets
	"aws_cloudwatch_log_group": true, "aws_cloudwatch_metric_alarm": true,
	"aws_cloudwatch_log_subscription_filter": true,
	"aws_kms_key":                            true, "aws_kms_alias": true, "aws_ssm_parameter": true,
	"aws_secretsmanager_secret": true, "aws_secretsmanager_secret_version": true,

	// Per-bucket configuration resources
	"aws_s3_bucket_policy": true, "aws_s3_bucket_versioning": true,
	"aws_s3_bucket_website_configuration": true, "aws_s3_bucket_cors_configuration": true,
	"aws_s3_bucket_public_access_block": true,
	"aws_s3_bucket_server_side_encryption_configuration": true,
	"aws_s3_bucket_lifecycle_configuration":              true, "aws_s3_bucket_notification": true,
	"aws_s3_bucket_acl": true, "aws_s3_bucket_ownership_controls": true,
	"aws_s3_object": true,

	// CDN, certificate, DNS, gateway, and firewall configuration
	"aws_cloudfront_origin_access_control": true, "aws_cloudfront_origin_access_identity": true,
	"aws_cloudfront_cache_policy": true, "aws_cloudfront_response_headers_policy": true,
	"aws_acm_certificate_validation": true, "aws_route53_record": true,
	"aws_lambda_permission":          true, "aws_lambda_event_source_mapping": true,
	"aws_api_gateway_resource": true, "aws_api_gateway_method": true,
	"aws_api_gateway_integration": true, "aws_api_gateway_deployment": true,
	"aws_api_gateway_stage": true, "aws_apigatewayv2_stage": true,
	"aws_apigatewayv2_integration": true, "aws_apigatewayv2_route": true,
	"aws_wafv2_web_acl_association": true,
}

// labelAttrs are consulted, in order, for a literal display label.
var labelAttrs = []string{"function_name", "name", "bucket", "domain_name"}

type resource struct {
	typ, name string
	label     string
	refs      []string // resource addresses mentioned in expressions
	subnets   []string // aws_subnet addresses the resource is placed in
	groups    []string // aws_security_group addresses attached
}

func (r *resource) addr() string { return r.typ + "." + r.name }

type walker struct {
	opts      Options
	resources []*resource
	index     map[string]bool
	subnets   map[string]bool      // subnet address -> publicly routed
	ingress   map[string][]string  // target SG address -> source SG addresses
}

func newWalker(opts Options) *walker {
	return &walker{
		opts:    opts,
		index:   make(map[string]bool),
		subnets: make(map[string]bool),
		ingress: make(map[string][]string),
	}
}

func (w *walker) file(f *hcl.File) {
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return
	}
	for _, block := range body.Blocks {
		if block.Type != "resource" || len(block.Labels) != 2 {
			continue
		}
		w.resource(block.Labels[0], block.Labels[1], block.Body)
	}
}

func (w *walker) resource(typ, name string, body *hclsyntax.Body) {
	addr := typ + "." + name
	switch typ {
	case "aws_subnet":
		w.subnets[addr] = subnetPublic(name, body)
		return
	case "aws_security_group":
		w.ingress[addr] = append(w.ingress[addr], ingressSources(body)...)
		return
	case "aws_security_group_rule":
		w.groupRule(body, "source_security_group_id")
		return
	case "aws_vpc_security_group_ingress_rule":
		w.groupRule(body, "referenced_security_group_id")
		return
	}
	if structuralTypes[typ] {
		return
	}
	if w.index[addr] {
		return
	}
	w.index[addr] = true

	r := &resource{typ: typ, name: name}
	for _, attr := range sortedAttrs(body) {
		switch attr.Name {
		case "subnet_id", "subnet_ids":
			r.subnets = append(r.subnets, refAddrs(attr.Expr)...)
		case "vpc_security_group_ids", "security_groups":
			r.groups = append(r.groups, refAddrs(attr.Expr)...)
		default:
			r.refs = append(r.refs, refAddrs(attr.Expr)...)
		}
	}
	for _, key := range labelAttrs {
		if s := literalString(body, key); s != "" {
			r.label = s
			break
		}
	}
	for _, nested := range body.Blocks {
		r.refs = append(r.refs, blockRefs(nested.Body)...)
	}
	w.resources = append(w.resources, r)
}

// groupRule records a standalone ingress rule. security_group_id names the
// protected group, srcAttr the group the traffic originates from.
func (w *walker) groupRule(body *hclsyntax.Body, srcAttr string) {
	if kind := literalString(body, "type"); kind != "" && kind != "ingress" {
		return
	}
	target := firstRef(body, "security_group_id")
	source := firstRef(body, srcAttr)
	if target == "" || source == "" {
		return
	}
	w.ingress[target] = append(w.ingress[target], source)
}

func (w *walker) graph() *graph.Graph {
	g := graph.New(nil)
	for _, r := range w.resources {
		n := graph.Node{ID: r.addr(), Address: r.addr(), Type: r.typ, Name: r.name}
		meta := graph.Metadata{}
		if r.label != "" && r.label != r.name {
			meta["label"] = r.label
		}
		if tier := w.subnetTier(r); tier != "" {
			meta["subnet"] = tier
		}
		if len(meta) > 0 {
			n.Meta = meta
		}
		_ = g.AddNode(n)
	}

	seen := make(map[graph.EdgeKey]bool)
	connect := func(from, to string, kind graph.EdgeKind) {
		if from == to || seen[graph.EdgeKey{From: from, To: to}] {
			return
		}
		if _, ok := g.Node(from); !ok {
			return
		}
		if _, ok := g.Node(to); !ok {
			return
		}
		seen[graph.EdgeKey{From: from, To: to}] = true
		_ = g.AddEdge(graph.Edge{From: from, To: to, Kind: kind})
	}

	for _, r := range w.resources {
		for _, ref := range r.refs {
			connect(r.addr(), ref, graph.KindReference)
		}
	}

	// Security group reachability. Sorted so repeated parses emit the same
	// edge order no matter how the groups hashed.
	attached := make(map[string][]string)
	for _, r := range w.resources {
		for _, sg := range r.groups {
			attached[sg] = append(attached[sg], r.addr())
		}
	}
	targets := make([]string, 0, len(w.ingress))
	for sg := range w.ingress {
		targets = append(targets, sg)
	}
	sort.Strings(targets)
	for _, target := range targets {
		for _, source := range w.ingress[target] {
			for _, from := range attached[source] {
				for _, to := range attached[target] {
					connect(from, to, graph.KindInferred)
				}
			}
		}
	}

	byType := make(map[string][]string)
	for _, r := range w.resources {
		byType[r.typ] = append(byType[r.typ], r.addr())
	}
	for _, p := range w.opts.patterns() {
		for _, from := range byType[p.FromType] {
			for _, to := range byType[p.ToType] {
				connect(from, to, graph.KindInferred)
			}
		}
	}
	return g
}

// subnetTier reports "public" if any subnet the resource is placed in is
// publicly routed, "private" if it sits only in private subnets.
func (w *walker) subnetTier(r *resource) string {
	if len(r.subnets) == 0 {
		return ""
	}
	known := false
	for _, s := range r.subnets {
		public, ok := w.subnets[s]
		if !ok {
			continue
		}
		known = true
		if public {
			return "public"
		}
	}
	if known {
		return "private"
	}
	return ""
}

// subnetPublic detects a publicly routed subnet from map_public_ip_on_launch
// or a "public" naming convention on the block or its Name tag.
func subnetPublic(name string, body *hclsyntax.Body) bool {
	if attr, ok := body.Attributes["map_public_ip_on_launch"]; ok {
		v, diags := attr.Expr.Value(nil)
		if !diags.HasErrors() && !v.IsNull() && v.IsKnown() && v.Type() == cty.Bool && v.True() {
			return true
		}
	}
	hint := name + " " + literalTag(body, "Name")
	return strings.Contains(strings.ToLower(hint), "public")
}

// ingressSources collects source security groups from inline ingress blocks.
func ingressSources(body *hclsyntax.Body) []string {
	var out []string
	for _, block := range body.Blocks {
		if block.Type != "ingress" {
			continue
		}
		if attr, ok := block.Body.Attributes["security_groups"]; ok {
			out = append(out, refAddrs(attr.Expr)...)
		}
	}
	return out
}

// refAddrs flattens expression traversals to resource addresses, so
// aws_dynamodb_table.users.name contributes "aws_dynamodb_table.users".
// Variable, local, data, and module roots are not resource references.
func refAddrs(expr hclsyntax.Expression) []string {
	var out []string
	for _, tr := range expr.Variables() {
		if addr, ok := traversalAddr(tr); ok {
			out = append(out, addr)
		}
	}
	return out
}

func traversalAddr(tr hcl.Traversal) (string, bool) {
	if len(tr) < 2 {
		return "", false
	}
	switch tr.RootName() {
	case "var", "local", "data", "module", "each", "count", "path", "terraform", "self":
		return "", false
	}
	attr, ok := tr[1].(hcl.TraverseAttr)
	if !ok {
		return "", false
	}
	return tr.RootName() + "." + attr.Name, true
}

func blockRefs(body *hclsyntax.Body) []string {
	var out []string
	for _, attr := range sortedAttrs(body) {
		out = append(out, refAddrs(attr.Expr)...)
	}
	for _, nested := range body.Blocks {
		out = append(out, blockRefs(nested.Body)...)
	}
	return out
}

// sortedAttrs returns body attributes in name order; hclsyntax stores them
// in a map, and edge emission must not depend on map iteration.
func sortedAttrs(body *hclsyntax.Body) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func firstRef(body *hclsyntax.Body, name string) string {
	attr, ok := body.Attributes[name]
	if !ok {
		return ""
	}
	refs := refAddrs(attr.Expr)
	if len(refs) == 0 {
		return ""
	}
	return refs[0]
}

// literalString evaluates an attribute without any variable scope, returning
// "" when the value is dynamic.
func literalString(body *hclsyntax.Body, name string) string {
	attr, ok := body.Attributes[name]
	if !ok {
		return ""
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || v.IsNull() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

func literalTag(body *hclsyntax.Body, key string) string {
	attr, ok := body.Attributes["tags"]
	if !ok {
		return ""
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || v.IsNull() || !v.IsKnown() {
		return ""
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return ""
	}
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		if k.Type() == cty.String && k.AsString() == key && ev.Type() == cty.String {
			return ev.AsString()
		}
	}
	return ""
}
