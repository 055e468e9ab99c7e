// internal/handlers/legal.go
package handlers

import "net/http"

func (h *AppHandlers) TermsPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Terms of Service"
	data.PageDescription = "The terms that govern your use of the platform."
	h.RenderPage(w, r, "terms.html", data)
}

func (h *AppHandlers) PrivacyPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Privacy Policy"
	data.PageDescription = "How we collect, use and protect your data."
	h.RenderPage(w, r, "privacy.html", data)
}

func (h *AppHandlers) FAQPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Frequently asked questions"
	data.PageDescription = "Answers about plans, billing and onboarding."
	h.RenderPage(w, r, "faq.html", data)
}
