package shade

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Reflection errors.
var (
	// ErrInvalidSource is returned when naga cannot parse or lower the source.
	ErrInvalidSource = errors.New("shade: invalid WGSL")

	// ErrNoEntryPoint is returned when the source has no entry point for the stage.
	ErrNoEntryPoint = errors.New("shade: no entry point for stage")

	// ErrUnsupportedType is returned for a varying whose type cannot be reflected.
	ErrUnsupportedType = errors.New("shade: unsupported type")

	// ErrUnsupportedResource is returned for a binding this package does not model.
	ErrUnsupportedResource = errors.New("shade: unsupported resource")

	// ErrDuplicateLocation is returned when two varyings share a location.
	ErrDuplicateLocation = errors.New("shade: duplicate location")

	// ErrMalformed is returned for an entry point parameter with neither a
	// location nor a builtin.
	ErrMalformed = errors.New("shade: malformed declaration")
)

// TargetName returns the name given to an unnamed pixel output at location
// loc, as in `-> @location(0) vec4<f32>`.
func TargetName(loc uint32) string {
	return "Target" + strconv.FormatUint(uint64(loc), 10)
}

// ReflectWGSL extracts the interface of the first entry point for stage.
// Resource bindings are collected from every module-scope declaration.
func ReflectWGSL(stage Stage, source string) (*ShaderInfo, error) {
	return ReflectWGSLEntry(stage, source, "")
}

// ReflectWGSLEntry is like ReflectWGSL but selects the entry point named
// entry. An empty entry selects the first one for stage.
func ReflectWGSLEntry(stage Stage, source, entry string) (*ShaderInfo, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	return reflectModule(module, stage, entry)
}

func reflectModule(module *ir.Module, stage Stage, entry string) (*ShaderInfo, error) {
	want := ir.StageVertex
	if stage == Pixel {
		want = ir.StageFragment
	}
	var ep *ir.EntryPoint
	for i := range module.EntryPoints {
		e := &module.EntryPoints[i]
		if e.Stage == want && (entry == "" || e.Name == entry) {
			ep = e
			break
		}
	}
	if ep == nil {
		if entry != "" {
			return nil, fmt.Errorf("%w: %s %q", ErrNoEntryPoint, stage, entry)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoEntryPoint, stage)
	}

	r := reflector{module: module}
	info := &ShaderInfo{Stage: stage, EntryPoint: ep.Name}

	for _, arg := range ep.Function.Arguments {
		vs, err := r.varyings(arg.Name, arg.Type, arg.Binding)
		if err != nil {
			return nil, fmt.Errorf("%s input: %w", ep.Name, err)
		}
		info.Inputs = append(info.Inputs, vs...)
	}
	if res := ep.Function.Result; res != nil {
		name := "result"
		if loc, ok := location(res.Binding); ok && stage == Pixel {
			name = TargetName(loc)
		}
		vs, err := r.varyings(name, res.Type, res.Binding)
		if err != nil {
			return nil, fmt.Errorf("%s output: %w", ep.Name, err)
		}
		info.Outputs = vs
	}

	if err := sortVaryings(info.Inputs); err != nil {
		return nil, fmt.Errorf("%s input: %w", ep.Name, err)
	}
	if err := sortVaryings(info.Outputs); err != nil {
		return nil, fmt.Errorf("%s output: %w", ep.Name, err)
	}

	resources, err := r.resources(stage)
	if err != nil {
		return nil, err
	}
	info.Resources = resources
	return info, nil
}

type reflector struct {
	module *ir.Module
}

func (r reflector) inner(h ir.TypeHandle) ir.TypeInner {
	if int(h) >= len(r.module.Types) {
		return nil
	}
	return r.module.Types[h].Inner
}

// location returns the location of a binding, false for builtins and
// unbound values.
func location(b *ir.Binding) (uint32, bool) {
	if b == nil {
		return 0, false
	}
	if loc, ok := (*b).(ir.LocationBinding); ok {
		return loc.Location, true
	}
	return 0, false
}

func isBuiltin(b *ir.Binding) bool {
	if b == nil {
		return false
	}
	_, ok := (*b).(ir.BuiltinBinding)
	return ok
}

// varyings turns an argument or result into located varyings, expanding
// struct members. Builtins are skipped.
func (r reflector) varyings(name string, h ir.TypeHandle, b *ir.Binding) ([]Varying, error) {
	if isBuiltin(b) {
		return nil, nil
	}
	if loc, ok := location(b); ok {
		t, err := r.valueType(h)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return []Varying{{Name: name, Location: loc, Type: t}}, nil
	}

	st, ok := r.inner(h).(ir.StructType)
	if !ok {
		return nil, fmt.Errorf("%w: %q has neither @location nor @builtin", ErrMalformed, name)
	}
	var out []Varying
	for _, m := range st.Members {
		if isBuiltin(m.Binding) {
			continue
		}
		loc, ok := location(m.Binding)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s has neither @location nor @builtin", ErrMalformed, name, m.Name)
		}
		t, err := r.valueType(m.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, m.Name, err)
		}
		out = append(out, Varying{Name: m.Name, Location: loc, Type: t})
	}
	return out, nil
}

func baseOf(s ir.ScalarType) (BaseType, bool) {
	switch s.Kind {
	case ir.ScalarFloat:
		if s.Width == 2 {
			return BaseHalf, true
		}
		return BaseFloat, true
	case ir.ScalarSint:
		return BaseInt, true
	case ir.ScalarUint:
		return BaseUint, true
	case ir.ScalarBool:
		return BaseBool, true
	}
	return 0, false
}

// valueType converts a scalar, vector or matrix type.
func (r reflector) valueType(h ir.TypeHandle) (Type, error) {
	var (
		t  Type
		ok bool
	)
	switch v := r.inner(h).(type) {
	case ir.ScalarType:
		var b BaseType
		b, ok = baseOf(v)
		t = Scalar(b)
	case ir.VectorType:
		var b BaseType
		b, ok = baseOf(v.Scalar)
		t = Vector(b, uint8(v.Size))
	case ir.MatrixType:
		var b BaseType
		b, ok = baseOf(v.Scalar)
		t = Matrix(b, uint8(v.Columns), uint8(v.Rows))
	}
	if !ok {
		return Type{}, fmt.Errorf("%w: %s", ErrUnsupportedType, r.typeName(h))
	}
	return t, nil
}

func sortVaryings(vs []Varying) error {
	sort.Slice(vs, func(i, j int) bool { return vs[i].Location < vs[j].Location })
	for i := 1; i < len(vs); i++ {
		if vs[i].Location == vs[i-1].Location {
			return fmt.Errorf("%w: %d (%s, %s)", ErrDuplicateLocation, vs[i].Location, vs[i-1].Name, vs[i].Name)
		}
	}
	return nil
}

// resources reflects every bound module-scope variable.
func (r reflector) resources(stage Stage) ([]Resource, error) {
	var out []Resource
	for _, gv := range r.module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		res := Resource{
			Name:     gv.Name,
			Group:    gv.Binding.Group,
			Binding:  gv.Binding.Binding,
			TypeName: r.typeName(gv.Type),
			Stages:   stage.Mask(),
		}
		if err := r.classify(&res, gv); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out, nil
}

func (r reflector) classify(res *Resource, gv ir.GlobalVariable) error {
	switch gv.Space {
	case ir.SpaceUniform:
		res.Kind = ResourceUniform
		res.Size = uint64(ir.TypeSize(r.module, gv.Type))
		return nil
	case ir.SpaceStorage:
		res.Kind = ResourceStorage
		if gv.Access == ir.StorageRead {
			res.Kind = ResourceReadOnlyStorage
		}
		res.Size = uint64(ir.TypeSize(r.module, gv.Type))
		return nil
	case ir.SpaceHandle:
	default:
		return fmt.Errorf("%w: %s: %s", ErrUnsupportedResource, res.Name, res.TypeName)
	}

	switch v := r.inner(gv.Type).(type) {
	case ir.SamplerType:
		res.Kind = ResourceSampler
		if v.Comparison {
			res.Kind = ResourceComparisonSampler
		}
		return nil
	case ir.ImageType:
		tex, ok := textureInfo(v)
		if !ok {
			return fmt.Errorf("%w: %s: %s", ErrUnsupportedResource, res.Name, res.TypeName)
		}
		res.Kind = ResourceTexture
		res.Texture = tex
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrUnsupportedResource, res.Name, res.TypeName)
}

func textureInfo(img ir.ImageType) (*TextureInfo, bool) {
	info := &TextureInfo{Multisampled: img.Multisampled}
	switch img.Class {
	case ir.ImageClassSampled:
		b, ok := baseOf(ir.ScalarType{Kind: img.SampledKind, Width: 4})
		if !ok || b == BaseBool {
			return nil, false
		}
		info.Sample = b
	case ir.ImageClassDepth:
		info.Sample = BaseFloat
		info.Depth = true
	default:
		return nil, false
	}

	switch {
	case img.Dim == ir.Dim1D && !img.Arrayed:
		info.Dim = TextureDim1D
	case img.Dim == ir.Dim2D && !img.Arrayed:
		info.Dim = TextureDim2D
	case img.Dim == ir.Dim2D:
		info.Dim = TextureDim2DArray
	case img.Dim == ir.Dim3D && !img.Arrayed:
		info.Dim = TextureDim3D
	case img.Dim == ir.DimCube && !img.Arrayed:
		info.Dim = TextureDimCube
	case img.Dim == ir.DimCube:
		info.Dim = TextureDimCubeArray
	default:
		return nil, false
	}
	return info, true
}

// typeName spells a type the way WGSL declares it, for diagnostics and
// binding comparison.
func (r reflector) typeName(h ir.TypeHandle) string {
	if int(h) >= len(r.module.Types) {
		return "?"
	}
	ty := r.module.Types[h]
	if ty.Name != "" {
		return ty.Name
	}
	switch v := ty.Inner.(type) {
	case ir.ScalarType:
		if b, ok := baseOf(v); ok {
			return Scalar(b).String()
		}
	case ir.VectorType:
		if b, ok := baseOf(v.Scalar); ok {
			return Vector(b, uint8(v.Size)).String()
		}
	case ir.MatrixType:
		if b, ok := baseOf(v.Scalar); ok {
			return Matrix(b, uint8(v.Columns), uint8(v.Rows)).String()
		}
	case ir.AtomicType:
		if b, ok := baseOf(v.Scalar); ok {
			return "atomic<" + b.String() + ">"
		}
	case ir.ArrayType:
		if v.Size.Constant == nil {
			return "array<" + r.typeName(v.Base) + ">"
		}
		return fmt.Sprintf("array<%s, %d>", r.typeName(v.Base), *v.Size.Constant)
	case ir.SamplerType:
		if v.Comparison {
			return "sampler_comparison"
		}
		return "sampler"
	case ir.ImageType:
		return imageName(v)
	}
	return fmt.Sprintf("%T", ty.Inner)
}

func imageName(img ir.ImageType) string {
	dims := map[ir.ImageDimension]string{ir.Dim1D: "1d", ir.Dim2D: "2d", ir.Dim3D: "3d", ir.DimCube: "cube"}
	dim := dims[img.Dim]
	if img.Arrayed {
		dim += "_array"
	}
	switch img.Class {
	case ir.ImageClassDepth:
		if img.Multisampled {
			return "texture_depth_multisampled_" + dim
		}
		return "texture_depth_" + dim
	case ir.ImageClassStorage:
		return "texture_storage_" + dim
	case ir.ImageClassExternal:
		return "texture_external"
	}
	sample := "f32"
	if b, ok := baseOf(ir.ScalarType{Kind: img.SampledKind, Width: 4}); ok {
		sample = b.String()
	}
	if img.Multisampled {
		return "texture_multisampled_" + dim + "<" + sample + ">"
	}
	return "texture_" + dim + "<" + sample + ">"
}
