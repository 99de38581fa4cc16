// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	BundleNotFoundId Id = iota + 1
	BundleNameInvalidId
	IntegrityMismatchId
	ReleaseNotFoundId
	RateLimitedId
	CompilerNotFoundId
	CompilerFailedId
	TemplateErrorId
	LicenseNotFoundId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation for the issue
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue guide, followed by its links, as terminal Markdown.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
		for _, link := range i.extLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

const (
	projectDocs HttpLink = "https://github.com/marjacob/setup-terminal#readme"
	innoDocs    HttpLink = "https://jrsoftware.org/ishelp/"
)

var (
	render = glamour.Render

	bundleNotFoundIssue = &Issue{
		id: BundleNotFoundId,
		mdMsg: `
# No bundle found in the release!

The release did not carry a binary asset named like a Windows Terminal bundle.

## Things you can try:
- Check the release page and make sure it has a ` + "`.msixbundle`" + ` asset.
- Pick a specific release:
~~~
$ setup-terminal --tag v1.12.10393.0
~~~
- Or build from a bundle you already downloaded:
~~~
$ setup-terminal --bundle ./Microsoft.WindowsTerminal_1.12.10393.0_8wekyb3d8bbwe.msixbundle
~~~`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://github.com/microsoft/terminal/releases"},
	}

	bundleNameInvalidIssue = &Issue{
		id: BundleNameInvalidId,
		mdMsg: `
# The bundle name is not recognized!

Bundles are identified by their file name alone. The name must look like:

~~~
Microsoft.WindowsTerminal[Preview][_Win10[Preview]]_<a.b.c.d>_8wekyb3d8bbwe.msixbundle
~~~

## Things you can try:
- Keep the file name exactly as it was published.
- Rename a copied bundle back to its original name.`,
		docLinks: []HttpLink{projectDocs},
	}

	integrityMismatchIssue = &Issue{
		id: IntegrityMismatchId,
		mdMsg: `
# The downloaded bundle failed verification!

The size or SHA-256 digest of the downloaded bundle differs from what the release
advertises. The download may have been truncated or tampered with.

## Things you can try:
- Run the command again to retry the download.
- Download the bundle manually and pass it with ` + "`--bundle`" + `.`,
		docLinks: []HttpLink{projectDocs},
	}

	releaseNotFoundIssue = &Issue{
		id: ReleaseNotFoundId,
		mdMsg: `
# Release not found!

The requested release does not exist in the configured repository.

## Things you can try:
- Check the tag spelling, tags start with a ` + "`v`" + `:
~~~
$ setup-terminal --tag v1.12.10393.0
~~~
- Check the repository configured with ` + "`--owner`" + ` and ` + "`--repo`" + `.`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://github.com/microsoft/terminal/releases"},
	}

	rateLimitedIssue = &Issue{
		id: RateLimitedId,
		mdMsg: `
# GitHub rate limit exceeded!

Anonymous requests to the GitHub API are limited per hour.

## Things you can try:
- Provide a token to raise the limit:
~~~
$ export GITHUB_TOKEN=<token>
~~~
- Wait until the limit resets and try again.`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api"},
	}

	compilerNotFoundIssue = &Issue{
		id: CompilerNotFoundId,
		mdMsg: `
# Inno Setup compiler not found!

The installer compiler could not be started.

## Things you can try:
- Install Inno Setup and make sure ` + "`ISCC.exe`" + ` is on your PATH.
- Point at the compiler explicitly:
~~~
$ setup-terminal --compiler "C:\Program Files (x86)\Inno Setup 6\ISCC.exe"
~~~`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://jrsoftware.org/isdl.php", innoDocs},
	}

	compilerFailedIssue = &Issue{
		id: CompilerFailedId,
		mdMsg: `
# The installer compiler reported a failure!

At least one package did not produce an installer. The compiler output above
names the offending line of the generated script.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see the exact compiler invocation.
- If you use a custom template, check it against the Inno Setup reference.`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{innoDocs},
	}

	templateErrorIssue = &Issue{
		id: TemplateErrorId,
		mdMsg: `
# The setup script template is invalid!

The template could not be parsed or rendered.

## Things you can try:
- Print the built-in template and start from it:
~~~
$ setup-terminal template > setup.iss.tmpl
~~~
- Make sure every referenced key exists, unknown keys are errors.`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://pkg.go.dev/text/template", innoDocs},
	}

	licenseNotFoundIssue = &Issue{
		id: LicenseNotFoundId,
		mdMsg: `
# License file not found!

Every installer shows the upstream license, so the license file is required.

## Things you can try:
- Check out the upstream sources next to this tool:
~~~
$ git submodule update --init
~~~
- Or point at the license explicitly:
~~~
$ setup-terminal --license ./LICENSE
~~~`,
		docLinks: []HttpLink{projectDocs},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Show where configuration is read from:
~~~
$ setup-terminal config path
~~~
- Print a valid configuration to start from:
~~~
$ setup-terminal config dump
~~~`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

A file or directory could not be read or written.

## Things you can try:
- Check that the output directory is writable.
- Choose another output directory:
~~~
$ setup-terminal --output ./dist
~~~`,
		docLinks: []HttpLink{projectDocs},
	}

	issues = map[Id]*Issue{
		bundleNotFoundIssue.Id():    bundleNotFoundIssue,
		bundleNameInvalidIssue.Id(): bundleNameInvalidIssue,
		integrityMismatchIssue.Id(): integrityMismatchIssue,
		releaseNotFoundIssue.Id():   releaseNotFoundIssue,
		rateLimitedIssue.Id():       rateLimitedIssue,
		compilerNotFoundIssue.Id():  compilerNotFoundIssue,
		compilerFailedIssue.Id():    compilerFailedIssue,
		templateErrorIssue.Id():     templateErrorIssue,
		licenseNotFoundIssue.Id():   licenseNotFoundIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		permissionDeniedIssue.Id():  permissionDeniedIssue,
	}
)

// Values returns every known issue ordered by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
