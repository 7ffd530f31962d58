package codegen

import "embed"

//go:embed prelude/*.h
var prelude embed.FS

func preludeFile(name string) string {
	data, err := prelude.ReadFile("prelude/" + name)
	if err != nil {
		panic("codegen: missing prelude " + name)
	}
	return string(data)
}

// preamble writes the includes, using-declarations and the jsc runtime
// namespace for the selected flavor.
func (g *generator) preamble() {
	if g.flavor == FlavorStandalone {
		g.out.Raw(0, preludeFile("standalone.h"))
	} else {
		g.out.Raw(0, preludeFile("addon.h"))
	}
	g.out.Blank()
	g.out.Raw(0, preludeFile("runtime.h"))
	if g.flavor == FlavorStandalone {
		g.out.Blank()
		g.out.Raw(0, preludeFile("console.h"))
	}
	g.out.Blank()
	g.out.Line(0, "}  // namespace jsc")
	g.out.Blank()
}

func (g *generator) postamble() {
	if g.flavor == FlavorStandalone {
		g.standaloneMain()
		return
	}

	g.out.Line(0, "void Init(Local<Object> exports) {")
	for _, e := range g.exports {
		g.out.Linef(1, "NODE_SET_METHOD(exports, %s, %s);", cString(e.Name), e.Symbol)
	}
	if g.hasMain {
		g.out.Linef(1, "NODE_SET_METHOD(exports, %s, %s);", cString(EntrySymbol), EntrySymbol)
	}
	if len(g.inits) > 0 {
		g.out.Line(1, "Isolate* isolate = Isolate::GetCurrent();")
		for _, name := range g.inits {
			g.out.Linef(1, "jsc::RunCallback(isolate, %s);", name)
		}
	}
	g.out.Line(0, "}")
	g.out.Blank()
	g.out.Line(0, "NODE_MODULE(NODE_GYP_MODULE_NAME, Init)")
}

func (g *generator) standaloneMain() {
	g.out.Line(0, "int main(int argc, char* argv[]) {")
	g.out.Line(1, "v8::V8::InitializeICUDefaultLocation(argv[0]);")
	g.out.Line(1, "v8::V8::InitializeExternalStartupData(argv[0]);")
	g.out.Line(1, "std::unique_ptr<v8::Platform> platform = v8::platform::NewDefaultPlatform();")
	g.out.Line(1, "v8::V8::InitializePlatform(platform.get());")
	g.out.Line(1, "v8::V8::Initialize();")
	g.out.Line(1, "Isolate::CreateParams create_params;")
	g.out.Line(1, "create_params.array_buffer_allocator = v8::ArrayBuffer::Allocator::NewDefaultAllocator();")
	g.out.Line(1, "Isolate* isolate = Isolate::New(create_params);")
	g.out.Line(1, "int status = 0;")
	g.out.Line(1, "{")
	g.out.Line(2, "Isolate::Scope isolate_scope(isolate);")
	g.out.Line(2, "v8::HandleScope handle_scope(isolate);")
	g.out.Line(2, "Local<Context> context = Context::New(isolate);")
	g.out.Line(2, "Context::Scope context_scope(context);")
	g.out.Line(2, "jsc::InstallConsole(isolate, context);")
	for _, name := range g.inits {
		g.out.Linef(2, "jsc::RunCallback(isolate, %s);", name)
	}
	g.out.Linef(2, "Local<Function> entry = FunctionTemplate::New(isolate, %s)->GetFunction(context).ToLocalChecked();", EntrySymbol)
	g.out.Line(2, "Local<Value> result = entry->Call(context, context->Global(), 0, nullptr).ToLocalChecked();")
	g.out.Line(2, "if (result->IsNumber()) {")
	g.out.Line(3, "status = result->Int32Value(context).FromMaybe(0);")
	g.out.Line(2, "}")
	g.out.Line(1, "}")
	g.out.Line(1, "isolate->Dispose();")
	g.out.Line(1, "v8::V8::Dispose();")
	g.out.Line(1, "v8::V8::DisposePlatform();")
	g.out.Line(1, "delete create_params.array_buffer_allocator;")
	g.out.Line(1, "return status;")
	g.out.Line(0, "}")
}
